package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
)

// ValidatePatchFromJSON — разбор частичного обновления и проверка товара, каким он станет
// после наложения патча на current.
func ValidatePatchFromJSON(ctx context.Context, validator ports.ProductValidator, current *domain.Product, raw []byte) (*domain.ProductPatch, error) {
	var patch domain.ProductPatch
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrInvalidProduct, err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("%w: invalid json: trailing data", ErrInvalidProduct)
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: пустое обновление", ErrInvalidProduct)
	}
	if err := validator.Validate(ctx, patch.Apply(current)); err != nil {
		return nil, err
	}
	return &patch, nil
}
