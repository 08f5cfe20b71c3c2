package validate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
)

// Проверка, что ProductValidator удовлетворяет интерфейсу ProductValidator.
var _ ports.ProductValidator = (*ProductValidator)(nil)

// ErrInvalidProduct — базовая ошибка валидации товара; errors.Is(err, domain.ErrValidation) тоже true.
var ErrInvalidProduct = fmt.Errorf("%w: product", domain.ErrValidation)

const maxNameLen = 200

// ProductValidator — проверка данных товара перед отправкой в шлюз.
type ProductValidator struct {
	now func() time.Time
}

// NewProductValidator — конструктор ProductValidator.
// Возвращает ErrInvalidProduct (с обёрнутой причиной) при любой проблеме.
func NewProductValidator() *ProductValidator { return &ProductValidator{now: time.Now} }

// Validate — проверяет общие поля и поля своего варианта.
func (v *ProductValidator) Validate(_ context.Context, p *domain.Product) error {
	if err := v.validateBase(p); err != nil {
		return err
	}
	if err := v.validateStock(p); err != nil {
		return err
	}
	return v.validateVariant(p)
}

// validateBase — общие поля.
func (v *ProductValidator) validateBase(p *domain.Product) error {
	if p == nil {
		return fmt.Errorf("%w: товар не может быть nil", ErrInvalidProduct)
	}
	if !p.ProductType.Valid() {
		return fmt.Errorf("%w: productType %q неизвестен", ErrInvalidProduct, p.ProductType)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name обязателен", ErrInvalidProduct)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("%w: name длиннее %d символов", ErrInvalidProduct, maxNameLen)
	}
	if p.Cost < 0 || p.Price < 0 || p.Markup < 0 {
		return fmt.Errorf("%w: cost, price и markup должны быть неотрицательными", ErrInvalidProduct)
	}
	if !p.AcquisitionDate.IsZero() && p.AcquisitionDate.After(v.now().Add(24*time.Hour)) {
		return fmt.Errorf("%w: acquisitionDate в будущем", ErrInvalidProduct)
	}
	for i, tag := range p.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: tags[%d] пустой", ErrInvalidProduct, i)
		}
	}
	return nil
}

// validateStock — количества и порог дозаказа.
func (v *ProductValidator) validateStock(p *domain.Product) error {
	if p.InventoryQuantity != nil && *p.InventoryQuantity < 0 {
		return fmt.Errorf("%w: inventoryQuantity должен быть неотрицательным", ErrInvalidProduct)
	}
	if p.ReorderThreshold != nil && *p.ReorderThreshold < 0 {
		return fmt.Errorf("%w: reorderThreshold должен быть неотрицательным", ErrInvalidProduct)
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return fmt.Errorf("%w: quantity должен быть неотрицательным", ErrInvalidProduct)
	}
	return nil
}

// validateVariant — поля чужого варианта запрещены: сменить тип можно только через Rebuild.
func (v *ProductValidator) validateVariant(p *domain.Product) error {
	stone := p.GemstoneType != "" || p.CaratWeight != 0 || p.ClarityGrade != "" || p.Color != "" || p.Cut != "" || p.Quantity != nil
	idol := p.Material != "" || p.Rarity != "" || p.WorkmanshipGrade != ""
	jewelry := p.Category != "" || p.Style != "" || p.Metal != "" || len(p.Gemstones) > 0

	switch p.ProductType {
	case domain.TypeLooseStone:
		if idol || jewelry {
			return foreignFields(p.ProductType)
		}
		if p.CaratWeight < 0 {
			return fmt.Errorf("%w: caratWeight должен быть неотрицательным", ErrInvalidProduct)
		}
	case domain.TypeCarvedIdol:
		if stone || jewelry {
			return foreignFields(p.ProductType)
		}
	case domain.TypeJewelry:
		if stone || idol {
			return foreignFields(p.ProductType)
		}
		for i, g := range p.Gemstones {
			if strings.TrimSpace(g.Type) == "" {
				return fmt.Errorf("%w: gemstones[%d].type обязателен", ErrInvalidProduct, i)
			}
			if g.CaratWeight < 0 || g.Count < 0 {
				return fmt.Errorf("%w: gemstones[%d] caratWeight и count должны быть неотрицательными", ErrInvalidProduct, i)
			}
		}
	}
	return nil
}

func foreignFields(t domain.ProductType) error {
	return fmt.Errorf("%w: заданы поля другого варианта для %s", ErrInvalidProduct, t)
}
