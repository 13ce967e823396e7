package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// StatusStat is the rollup for one order status.
type StatusStat struct {
	Status       string `json:"status"`
	Orders       int64  `json:"orders"`
	RevenueCents int64  `json:"revenue_cents"`
}

// OrderStats computes the per-status order count and revenue rollup in a
// single aggregate query.
func (s *Store) OrderStats(ctx context.Context) ([]StatusStat, error) {
	const q = `
		SELECT status, COUNT(*), COALESCE(SUM(total_cents), 0)
		FROM   orders
		GROUP  BY status
		ORDER  BY status`

	var stats []StatusStat
	err := s.withRetry(ctx, "order_stats", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q)
		if err != nil {
			return err
		}
		stats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (StatusStat, error) {
			var st StatusStat
			err := row.Scan(&st.Status, &st.Orders, &st.RevenueCents)
			return st, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: order stats: %w", err)
	}
	if stats == nil {
		stats = []StatusStat{}
	}
	return stats, nil
}
