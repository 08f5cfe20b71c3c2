package domain

import "time"

// ChangeKind — тип изменения каталога.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent — событие об успешной мутации, рассылается другим экземплярам.
type ChangeEvent struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Kind      ChangeKind `json:"kind"`
	ProductID string     `json:"productId"`
	At        time.Time  `json:"at"`
}

// ReorderAdvisory — рекомендация дозаказа: остаток ниже порога.
type ReorderAdvisory struct {
	ProductID   string      `json:"productId"`
	Name        string      `json:"name"`
	ProductType ProductType `json:"productType"`
	Quantity    int         `json:"quantity"`
	Threshold   int         `json:"threshold"`
	At          time.Time   `json:"at"`
}

// NewReorderAdvisory — advisory для товара ниже порога; ok=false если правило не сработало.
func NewReorderAdvisory(p *Product, at time.Time) (ReorderAdvisory, bool) {
	if !p.BelowReorderThreshold() {
		return ReorderAdvisory{}, false
	}
	return ReorderAdvisory{
		ProductID:   p.ID,
		Name:        p.Name,
		ProductType: p.ProductType,
		Quantity:    *p.StockQuantity(),
		Threshold:   *p.ReorderThreshold,
		At:          at,
	}, true
}
