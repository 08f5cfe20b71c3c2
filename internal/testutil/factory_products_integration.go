//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

func UniqSuffix() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// MakeProduct — валидный LooseStone с уникальным id.
func MakeProduct(opts ...func(*domain.Product)) domain.Product {
	now := time.Now().UTC().Truncate(time.Second)
	p := domain.Product{
		ID:                "prd-" + UniqSuffix(),
		ProductType:       domain.TypeLooseStone,
		Name:              "Ruby " + UniqSuffix(),
		AcquisitionDate:   now.AddDate(0, -1, 0),
		Supplier:          "Mogok Traders",
		Cost:              800,
		Price:             1200,
		GemstoneType:      "Ruby",
		CaratWeight:       1.5,
		ClarityGrade:      "VS1",
		Quantity:          domain.IntPtr(3),
		InventoryQuantity: domain.IntPtr(3),
		ReorderThreshold:  domain.IntPtr(2),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
