// Package notify — получатели рекомендаций дозаказа.
package notify

import (
	"context"
	"errors"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
)

var (
	_ ports.ReorderNotifier = (*LogNotifier)(nil)
	_ ports.ReorderNotifier = (Fanout)(nil)
)

// LogNotifier — рекомендация в лог предупреждением.
type LogNotifier struct {
	log ports.Logger
}

func NewLogNotifier(log ports.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) NotifyReorder(ctx context.Context, a domain.ReorderAdvisory) error {
	n.log.Warnf(ctx, "reorder advised product_id=%s name=%q type=%s stock=%d threshold=%d",
		a.ProductID, a.Name, a.ProductType, a.Quantity, a.Threshold)
	return nil
}

// Fanout — рассылка всем получателям; ошибка одного не мешает остальным.
type Fanout []ports.ReorderNotifier

func (f Fanout) NotifyReorder(ctx context.Context, a domain.ReorderAdvisory) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.NotifyReorder(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
