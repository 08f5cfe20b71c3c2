package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ProductValidator — проверка товара перед записью в бэкенд.
type ProductValidator interface {
	Validate(ctx context.Context, p *domain.Product) error
}
