package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ReorderNotifier — получатель рекомендаций дозаказа.
type ReorderNotifier interface {
	NotifyReorder(ctx context.Context, a domain.ReorderAdvisory) error
}

// ReorderJournal — журнал рекомендаций для чтения через API.
type ReorderJournal interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ReorderAdvisory, error)
}
