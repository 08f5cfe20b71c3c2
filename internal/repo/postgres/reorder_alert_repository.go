package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ ports.ReorderNotifier = (*ReorderAlertRepository)(nil)
	_ ports.ReorderJournal  = (*ReorderAlertRepository)(nil)
)

const maxRecentAlerts = 500

// ReorderAlertRepository — журнал рекомендаций дозаказа в Postgres (pgxpool).
type ReorderAlertRepository struct {
	pool *pgxpool.Pool
}

func NewReorderAlertRepository(pool *pgxpool.Pool) *ReorderAlertRepository {
	return &ReorderAlertRepository{pool: pool}
}

// NotifyReorder — записать рекомендацию в журнал.
func (r *ReorderAlertRepository) NotifyReorder(ctx context.Context, a domain.ReorderAdvisory) error {
	if a.ProductID == "" {
		return errors.New("product_id is required")
	}
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO reorder_alerts (product_id, name, product_type, quantity, threshold, advised_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ProductID, a.Name, string(a.ProductType), a.Quantity, a.Threshold, a.At); err != nil {
		return fmt.Errorf("insert reorder alert: %w", err)
	}
	return nil
}

// ListRecent — последние рекомендации, новые первыми.
func (r *ReorderAlertRepository) ListRecent(ctx context.Context, limit int) ([]domain.ReorderAdvisory, error) {
	if limit <= 0 || limit > maxRecentAlerts {
		limit = maxRecentAlerts
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, product_type, quantity, threshold, advised_at
		FROM reorder_alerts
		ORDER BY advised_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select reorder alerts: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReorderAdvisory, error) {
		var (
			a  domain.ReorderAdvisory
			pt string
		)
		if err := row.Scan(&a.ProductID, &a.Name, &pt, &a.Quantity, &a.Threshold, &a.At); err != nil {
			return a, err
		}
		a.ProductType = domain.ProductType(pt)
		a.At = a.At.UTC()
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan reorder alerts: %w", err)
	}
	return out, nil
}
