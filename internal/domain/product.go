package domain

import (
	"slices"
	"time"
)

// ProductType — дискриминант варианта товара.
type ProductType string

const (
	TypeLooseStone ProductType = "LooseStone"
	TypeCarvedIdol ProductType = "CarvedIdol"
	TypeJewelry    ProductType = "Jewelry"
)

// Valid — известный ли тип.
func (t ProductType) Valid() bool {
	switch t {
	case TypeLooseStone, TypeCarvedIdol, TypeJewelry:
		return true
	}
	return false
}

// AuditEntry — запись журнала изменений товара.
type AuditEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	User   string    `json:"user,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Gemstone — вставка в ювелирном изделии.
type Gemstone struct {
	Type        string  `json:"type"`
	CaratWeight float64 `json:"caratWeight,omitempty"`
	Count       int     `json:"count,omitempty"`
}

// Product — товар каталога. Плоская структура с дискриминантом ProductType:
// общие поля заполнены всегда, поля вариантов только для своего типа.
type Product struct {
	ID          string      `json:"id,omitempty"`
	ProductType ProductType `json:"productType"`

	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	AcquisitionDate   time.Time    `json:"acquisitionDate"`
	Supplier          string       `json:"supplier,omitempty"`
	Cost              float64      `json:"cost"`
	Price             float64      `json:"price"`
	Markup            float64      `json:"markup,omitempty"`
	StorageLocation   string       `json:"storageLocation,omitempty"`
	Condition         string       `json:"condition,omitempty"`
	ReservationStatus string       `json:"reservationStatus,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	Images            []string     `json:"images,omitempty"`
	Videos            []string     `json:"videos,omitempty"`
	ShopifyID         string       `json:"shopifyId,omitempty"`
	EtsyID            string       `json:"etsyId,omitempty"`
	AuditTrail        []AuditEntry `json:"auditTrail,omitempty"`
	InventoryQuantity *int         `json:"inventoryQuantity,omitempty"`
	ReorderThreshold  *int         `json:"reorderThreshold,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`

	// LooseStone
	GemstoneType string  `json:"gemstoneType,omitempty"`
	CaratWeight  float64 `json:"caratWeight,omitempty"`
	ClarityGrade string  `json:"clarityGrade,omitempty"`
	Color        string  `json:"color,omitempty"`
	Cut          string  `json:"cut,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`

	// CarvedIdol
	Material         string `json:"material,omitempty"`
	Rarity           string `json:"rarity,omitempty"`
	WorkmanshipGrade string `json:"workmanshipGrade,omitempty"`

	// Jewelry
	Category  string     `json:"category,omitempty"`
	Style     string     `json:"style,omitempty"`
	Metal     string     `json:"metal,omitempty"`
	Gemstones []Gemstone `json:"gemstones,omitempty"`
}

// StockQuantity — остаток для правила дозаказа:
// quantity у LooseStone, inventoryQuantity у остальных. nil — не задан.
func (p *Product) StockQuantity() *int {
	if p.ProductType == TypeLooseStone {
		return p.Quantity
	}
	return p.InventoryQuantity
}

// CategoryValue — поле категории своего варианта.
func (p *Product) CategoryValue() string {
	switch p.ProductType {
	case TypeJewelry:
		return p.Category
	case TypeLooseStone:
		return p.GemstoneType
	case TypeCarvedIdol:
		return p.Material
	}
	return ""
}

// BelowReorderThreshold — остаток и порог заданы, остаток строго ниже порога.
func (p *Product) BelowReorderThreshold() bool {
	stock := p.StockQuantity()
	return stock != nil && p.ReorderThreshold != nil && *stock < *p.ReorderThreshold
}

// Rebuild — единственный способ сменить тип товара: общие поля сохраняются,
// поля прежнего варианта отбрасываются.
func (p *Product) Rebuild(newType ProductType) *Product {
	base := p.Clone()
	if base.ProductType == newType {
		return base
	}
	base.ProductType = newType
	base.GemstoneType, base.CaratWeight, base.ClarityGrade, base.Color, base.Cut = "", 0, "", "", ""
	base.Quantity = nil
	base.Material, base.Rarity, base.WorkmanshipGrade = "", "", ""
	base.Category, base.Style, base.Metal = "", "", ""
	base.Gemstones = nil
	return base
}

// Clone — глубокая копия; кэш и координатор отдают только копии.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Tags = slices.Clone(p.Tags)
	cp.Images = slices.Clone(p.Images)
	cp.Videos = slices.Clone(p.Videos)
	cp.AuditTrail = slices.Clone(p.AuditTrail)
	cp.Gemstones = slices.Clone(p.Gemstones)
	cp.InventoryQuantity = cloneInt(p.InventoryQuantity)
	cp.ReorderThreshold = cloneInt(p.ReorderThreshold)
	cp.Quantity = cloneInt(p.Quantity)
	return &cp
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr — хелпер для опциональных количеств.
func IntPtr(v int) *int { return &v }
