package domain

import (
	"slices"
	"time"
)

// ProductPatch — частичное обновление товара. nil-поле не трогается и не уходит в тело запроса.
// ID, даты создания/изменения и журнал ведёт бэкенд, в патче их нет.
type ProductPatch struct {
	ProductType *ProductType `json:"productType,omitempty"`

	Name              *string    `json:"name,omitempty"`
	Description       *string    `json:"description,omitempty"`
	AcquisitionDate   *time.Time `json:"acquisitionDate,omitempty"`
	Supplier          *string    `json:"supplier,omitempty"`
	Cost              *float64   `json:"cost,omitempty"`
	Price             *float64   `json:"price,omitempty"`
	Markup            *float64   `json:"markup,omitempty"`
	StorageLocation   *string    `json:"storageLocation,omitempty"`
	Condition         *string    `json:"condition,omitempty"`
	ReservationStatus *string    `json:"reservationStatus,omitempty"`
	Tags              *[]string  `json:"tags,omitempty"`
	Images            *[]string  `json:"images,omitempty"`
	Videos            *[]string  `json:"videos,omitempty"`
	ShopifyID         *string    `json:"shopifyId,omitempty"`
	EtsyID            *string    `json:"etsyId,omitempty"`
	InventoryQuantity *int       `json:"inventoryQuantity,omitempty"`
	ReorderThreshold  *int       `json:"reorderThreshold,omitempty"`

	GemstoneType *string  `json:"gemstoneType,omitempty"`
	CaratWeight  *float64 `json:"caratWeight,omitempty"`
	ClarityGrade *string  `json:"clarityGrade,omitempty"`
	Color        *string  `json:"color,omitempty"`
	Cut          *string  `json:"cut,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`

	Material         *string `json:"material,omitempty"`
	Rarity           *string `json:"rarity,omitempty"`
	WorkmanshipGrade *string `json:"workmanshipGrade,omitempty"`

	Category  *string     `json:"category,omitempty"`
	Style     *string     `json:"style,omitempty"`
	Metal     *string     `json:"metal,omitempty"`
	Gemstones *[]Gemstone `json:"gemstones,omitempty"`
}

// PatchFrom — патч, заменяющий все редактируемые поля значениями p (полная замена через PATCH).
func PatchFrom(p *Product) *ProductPatch {
	if p == nil {
		return &ProductPatch{}
	}
	cp := p.Clone()
	return &ProductPatch{
		ProductType:       &cp.ProductType,
		Name:              &cp.Name,
		Description:       &cp.Description,
		AcquisitionDate:   &cp.AcquisitionDate,
		Supplier:          &cp.Supplier,
		Cost:              &cp.Cost,
		Price:             &cp.Price,
		Markup:            &cp.Markup,
		StorageLocation:   &cp.StorageLocation,
		Condition:         &cp.Condition,
		ReservationStatus: &cp.ReservationStatus,
		Tags:              &cp.Tags,
		Images:            &cp.Images,
		Videos:            &cp.Videos,
		ShopifyID:         &cp.ShopifyID,
		EtsyID:            &cp.EtsyID,
		InventoryQuantity: cp.InventoryQuantity,
		ReorderThreshold:  cp.ReorderThreshold,
		GemstoneType:      &cp.GemstoneType,
		CaratWeight:       &cp.CaratWeight,
		ClarityGrade:      &cp.ClarityGrade,
		Color:             &cp.Color,
		Cut:               &cp.Cut,
		Quantity:          cp.Quantity,
		Material:          &cp.Material,
		Rarity:            &cp.Rarity,
		WorkmanshipGrade:  &cp.WorkmanshipGrade,
		Category:          &cp.Category,
		Style:             &cp.Style,
		Metal:             &cp.Metal,
		Gemstones:         &cp.Gemstones,
	}
}

// IsEmpty — в патче нет ни одного поля.
func (pp *ProductPatch) IsEmpty() bool {
	return pp == nil || *pp == ProductPatch{}
}

// Apply — копия base с наложенным патчем; base не меняется.
func (pp *ProductPatch) Apply(base *Product) *Product {
	out := base.Clone()
	if out == nil {
		out = &Product{}
	}
	if pp == nil {
		return out
	}

	set(&out.ProductType, pp.ProductType)
	set(&out.Name, pp.Name)
	set(&out.Description, pp.Description)
	set(&out.AcquisitionDate, pp.AcquisitionDate)
	set(&out.Supplier, pp.Supplier)
	set(&out.Cost, pp.Cost)
	set(&out.Price, pp.Price)
	set(&out.Markup, pp.Markup)
	set(&out.StorageLocation, pp.StorageLocation)
	set(&out.Condition, pp.Condition)
	set(&out.ReservationStatus, pp.ReservationStatus)
	set(&out.ShopifyID, pp.ShopifyID)
	set(&out.EtsyID, pp.EtsyID)
	set(&out.GemstoneType, pp.GemstoneType)
	set(&out.CaratWeight, pp.CaratWeight)
	set(&out.ClarityGrade, pp.ClarityGrade)
	set(&out.Color, pp.Color)
	set(&out.Cut, pp.Cut)
	set(&out.Material, pp.Material)
	set(&out.Rarity, pp.Rarity)
	set(&out.WorkmanshipGrade, pp.WorkmanshipGrade)
	set(&out.Category, pp.Category)
	set(&out.Style, pp.Style)
	set(&out.Metal, pp.Metal)

	if pp.Tags != nil {
		out.Tags = slices.Clone(*pp.Tags)
	}
	if pp.Images != nil {
		out.Images = slices.Clone(*pp.Images)
	}
	if pp.Videos != nil {
		out.Videos = slices.Clone(*pp.Videos)
	}
	if pp.Gemstones != nil {
		out.Gemstones = slices.Clone(*pp.Gemstones)
	}
	if pp.InventoryQuantity != nil {
		out.InventoryQuantity = cloneInt(pp.InventoryQuantity)
	}
	if pp.ReorderThreshold != nil {
		out.ReorderThreshold = cloneInt(pp.ReorderThreshold)
	}
	if pp.Quantity != nil {
		out.Quantity = cloneInt(pp.Quantity)
	}
	return out
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// StringPtr — хелпер для строковых полей патча.
func StringPtr(v string) *string { return &v }
