package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ListingSync — синхронизация с торговой площадкой. Best-effort: ошибки не откатывают мутацию.
type ListingSync interface {
	CreateRemoteListing(ctx context.Context, p *domain.Product) (externalID string, err error)
	UpdateRemoteListing(ctx context.Context, externalID string, p *domain.Product) error
}
