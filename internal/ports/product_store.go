package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ProductStore — общий кэш страниц и отдельных товаров.
// Требования к реализации: потокобезопасность; возврат копий;
// ClearAll удаляет все ключи обеих карт и увеличивает поколение.
type ProductStore interface {
	// GetPage — страница по каноническому ключу; (nil, false) при промахе.
	GetPage(ctx context.Context, key string) (*domain.PageResult, bool)
	// SetPage — вставить/перезаписать страницу.
	SetPage(ctx context.Context, key string, page *domain.PageResult) error
	// GetEntity — товар по id; (nil, false) при промахе.
	GetEntity(ctx context.Context, id string) (*domain.Product, bool)
	// SetEntity — вставить/перезаписать товар.
	SetEntity(ctx context.Context, p *domain.Product) error
	// ClearAll — полная инвалидация.
	ClearAll(ctx context.Context) error

	// Generation — текущее поколение; меняется при каждом ClearAll.
	Generation(ctx context.Context) (uint64, error)
	// SetPageAt — записать страницу, только если поколение всё ещё gen.
	SetPageAt(ctx context.Context, gen uint64, key string, page *domain.PageResult) (bool, error)
	// SetEntityAt — записать товар, только если поколение всё ещё gen.
	SetEntityAt(ctx context.Context, gen uint64, p *domain.Product) (bool, error)
}
