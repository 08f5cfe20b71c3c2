package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// CatalogService — операции каталога, которыми пользуется координатор и HTTP-слой.
type CatalogService interface {
	// FetchPage — всегда идёт в шлюз, без чтения кэша.
	FetchPage(ctx context.Context, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error)
	// Page — read-through через кэш.
	Page(ctx context.Context, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
