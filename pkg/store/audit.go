package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/orderdesk/pkg/cursor"
)

// AuditEvent is one entry in the append-only audit trail.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SortKey returns the event's position in the pagination total order.
func (e AuditEvent) SortKey() cursor.Cursor {
	return cursor.Cursor{Timestamp: e.CreatedAt, ID: e.ID}
}

// RecordAudit appends an event to the audit trail.
func (s *Store) RecordAudit(ctx context.Context, event AuditEvent) error {
	const q = `
		INSERT INTO audit_events (actor, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)`

	err := s.withRetry(ctx, "record_audit", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, q, event.Actor, event.Action, event.Entity, event.EntityID, event.Detail)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: record audit: %w", err)
	}
	return nil
}

// ListAuditEvents returns up to limit events strictly after the cursor
// position, newest first, with the same tie-break contract as ListOrders.
// The audit trail has no text filter; search is accepted to satisfy
// pagination.RowSource and ignored.
func (s *Store) ListAuditEvents(ctx context.Context, limit int, after cursor.Cursor, search string) ([]AuditEvent, error) {
	q := `
		SELECT id, actor, action, entity, entity_id, detail, created_at
		FROM   audit_events`
	var args []any
	if !after.IsZero() {
		q += `
		WHERE  (created_at < $1 OR (created_at = $1 AND id < $2))`
		args = append(args, after.Timestamp, after.ID)
	}
	q += fmt.Sprintf(`
		ORDER  BY created_at DESC, id DESC
		LIMIT  $%d`, len(args)+1)
	args = append(args, limit)

	var events []AuditEvent
	err := s.withRetry(ctx, "list_audit_events", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		events, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditEvent, error) {
			var e AuditEvent
			err := row.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.CreatedAt)
			return e, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: list audit events: %w", err)
	}
	if events == nil {
		events = []AuditEvent{}
	}
	return events, nil
}
