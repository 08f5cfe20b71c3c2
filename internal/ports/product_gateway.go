package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ProductGateway — удалённый CRUD товаров. Фильтрацию не выполняет.
// Ошибки классифицируются как domain.ErrNetwork / domain.ErrNotFound.
type ProductGateway interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	// Update — частичное обновление: уходят только заданные поля патча.
	Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}
