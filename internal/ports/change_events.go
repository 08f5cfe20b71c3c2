package ports

import (
	"context"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// ChangePublisher — рассылка событий об изменении каталога другим экземплярам.
type ChangePublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Close() error
}

// ChangeConsumer — приём чужих событий изменения; Run блокирует до отмены ctx.
type ChangeConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
