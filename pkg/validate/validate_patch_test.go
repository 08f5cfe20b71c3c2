package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

func storedStone() *domain.Product {
	return &domain.Product{
		ID:               "s1",
		ProductType:      domain.TypeLooseStone,
		Name:             "Sapphire",
		Cost:             300,
		Price:            450,
		GemstoneType:     "Sapphire",
		Quantity:         domain.IntPtr(6),
		ReorderThreshold: domain.IntPtr(3),
	}
}

// Один quantity без productType и name проходит: проверяется товар после наложения патча.
func TestValidatePatchFromJSON_QuantityOnly(t *testing.T) {
	patch, err := ValidatePatchFromJSON(context.Background(), NewProductValidator(), storedStone(), []byte(`{"quantity":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.Quantity == nil || *patch.Quantity != 2 || patch.Name != nil || patch.ProductType != nil {
		t.Fatalf("unexpected patch: %+v", patch)
	}
}

func TestValidatePatchFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", `{}`, "пустое"},
		{"unknown field", `{"weight":1}`, "invalid json"},
		{"trailing data", `{"quantity":2}{}`, "trailing data"},
		{"negative quantity", `{"quantity":-1}`, "quantity"},
		{"foreign variant field", `{"metal":"Gold"}`, "другого варианта"},
		{"blank name", `{"name":"  "}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePatchFromJSON(context.Background(), NewProductValidator(), storedStone(), []byte(tt.raw))
			if !errors.Is(err, ErrInvalidProduct) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected validation error containing %q, got: %v", tt.want, err)
			}
		})
	}
}
