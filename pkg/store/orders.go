package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/orderdesk/pkg/cursor"
)

// Order is a parent row in the (created_at DESC, id DESC) total order.
// Items and Tags are populated by the relation loader, not by ListOrders.
type Order struct {
	ID           int64       `json:"id"`
	Reference    string      `json:"reference"`
	CustomerName string      `json:"customer_name"`
	Status       string      `json:"status"`
	TotalCents   int64       `json:"total_cents"`
	CreatedAt    time.Time   `json:"created_at"`
	Items        []OrderItem `json:"items,omitempty"`
	Tags         []OrderTag  `json:"tags,omitempty"`
}

// SortKey returns the order's position in the pagination total order.
func (o Order) SortKey() cursor.Cursor {
	return cursor.Cursor{Timestamp: o.CreatedAt, ID: o.ID}
}

// OrderItem is a line item belonging to one order.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitCents int64  `json:"unit_cents"`
	Position  int    `json:"position"`
}

// OrderTag is a label attached to one order.
type OrderTag struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Label   string `json:"label"`
}

// ItemDraft describes one line item at intake time.
type ItemDraft struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitCents int64  `json:"unit_cents"`
}

// OrderDraft is the order intake payload.
type OrderDraft struct {
	Reference    string      `json:"reference"`
	CustomerName string      `json:"customer_name"`
	Status       string      `json:"status"`
	Items        []ItemDraft `json:"items"`
	Tags         []string    `json:"tags"`
	Actor        string      `json:"actor"`
}

// DraftError reports an invalid intake payload. It maps to a client error at
// the HTTP boundary, unlike database failures.
type DraftError struct {
	msg string
}

func (e *DraftError) Error() string {
	return e.msg
}

func draftErrorf(format string, args ...any) *DraftError {
	return &DraftError{msg: fmt.Sprintf(format, args...)}
}

// Validate checks the intake payload before it reaches the database.
// Failures are *DraftError values.
func (d OrderDraft) Validate() error {
	if strings.TrimSpace(d.Reference) == "" {
		return draftErrorf("order draft: reference is required")
	}
	for i, item := range d.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return draftErrorf("order draft: item %d: sku is required", i)
		}
		if item.Quantity < 1 {
			return draftErrorf("order draft: item %d: quantity must be >= 1", i)
		}
		if item.UnitCents < 0 {
			return draftErrorf("order draft: item %d: unit_cents must be >= 0", i)
		}
	}
	return nil
}

// ListOrders returns up to limit orders strictly after the cursor position in
// (created_at DESC, id DESC) order. The continuation predicate is written as
//
//	created_at < $ts OR (created_at = $ts AND id < $id)
//
// so rows sharing one timestamp (bulk inserts) are neither skipped nor
// repeated. search, when non-empty, filters on reference and customer name.
//
// The signature matches pagination.RowSource[Order]: the reader passes
// limit+1 and derives HasMore itself.
func (s *Store) ListOrders(ctx context.Context, limit int, after cursor.Cursor, search string) ([]Order, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var conditions []string
	if !after.IsZero() {
		ts := next(after.Timestamp)
		id := next(after.ID)
		conditions = append(conditions,
			fmt.Sprintf("(created_at < %s OR (created_at = %s AND id < %s))", ts, ts, id))
	}
	if search != "" {
		pattern := next("%" + search + "%")
		conditions = append(conditions,
			fmt.Sprintf("(reference ILIKE %s OR customer_name ILIKE %s)", pattern, pattern))
	}

	q := "SELECT id, reference, customer_name, status, total_cents, created_at\nFROM   orders"
	if len(conditions) > 0 {
		q += "\nWHERE  " + strings.Join(conditions, "\n  AND  ")
	}
	q += "\nORDER  BY created_at DESC, id DESC"
	q += fmt.Sprintf("\nLIMIT  %s", next(limit))

	var orders []Order
	err := s.withRetry(ctx, "list_orders", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		orders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
			var o Order
			err := row.Scan(&o.ID, &o.Reference, &o.CustomerName, &o.Status, &o.TotalCents, &o.CreatedAt)
			return o, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: list orders: %w", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// OrderItemsFor loads the line items for every order in orderIDs with one
// batched query, pre-sorted by (order_id, position) so grouped attachment
// keeps display order stable.
func (s *Store) OrderItemsFor(ctx context.Context, orderIDs []int64) ([]OrderItem, error) {
	const q = `
		SELECT id, order_id, sku, name, quantity, unit_cents, position
		FROM   order_items
		WHERE  order_id = ANY($1)
		ORDER  BY order_id, position, id`

	var items []OrderItem
	err := s.withRetry(ctx, "order_items_for", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q, orderIDs)
		if err != nil {
			return err
		}
		items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderItem, error) {
			var it OrderItem
			err := row.Scan(&it.ID, &it.OrderID, &it.SKU, &it.Name, &it.Quantity, &it.UnitCents, &it.Position)
			return it, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: order items: %w", err)
	}
	return items, nil
}

// OrderTagsFor loads the tags for every order in orderIDs with one batched
// query, sorted by label within each order.
func (s *Store) OrderTagsFor(ctx context.Context, orderIDs []int64) ([]OrderTag, error) {
	const q = `
		SELECT id, order_id, label
		FROM   order_tags
		WHERE  order_id = ANY($1)
		ORDER  BY order_id, label, id`

	var tags []OrderTag
	err := s.withRetry(ctx, "order_tags_for", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q, orderIDs)
		if err != nil {
			return err
		}
		tags, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderTag, error) {
			var tag OrderTag
			err := row.Scan(&tag.ID, &tag.OrderID, &tag.Label)
			return tag, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: order tags: %w", err)
	}
	return tags, nil
}

// CreateOrder inserts an order with its items and tags in one transaction and
// records an audit event. The order total is computed from the line items.
func (s *Store) CreateOrder(ctx context.Context, draft OrderDraft) (Order, error) {
	if err := draft.Validate(); err != nil {
		return Order{}, err
	}

	status := draft.Status
	if status == "" {
		status = "pending"
	}

	var total int64
	for _, item := range draft.Items {
		total += int64(item.Quantity) * item.UnitCents
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order := Order{
		Reference:    draft.Reference,
		CustomerName: draft.CustomerName,
		Status:       status,
		TotalCents:   total,
		Items:        []OrderItem{},
		Tags:         []OrderTag{},
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (reference, customer_name, status, total_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		order.Reference, order.CustomerName, order.Status, order.TotalCents,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("store: insert order: %w", err)
	}

	for i, item := range draft.Items {
		it := OrderItem{
			OrderID:   order.ID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitCents: item.UnitCents,
			Position:  i,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, sku, name, quantity, unit_cents, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			it.OrderID, it.SKU, it.Name, it.Quantity, it.UnitCents, it.Position,
		).Scan(&it.ID)
		if err != nil {
			return Order{}, fmt.Errorf("store: insert item %d: %w", i, err)
		}
		order.Items = append(order.Items, it)
	}

	for _, label := range draft.Tags {
		tag := OrderTag{OrderID: order.ID, Label: label}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_tags (order_id, label)
			VALUES ($1, $2)
			RETURNING id`,
			tag.OrderID, tag.Label,
		).Scan(&tag.ID)
		if err != nil {
			return Order{}, fmt.Errorf("store: insert tag %q: %w", label, err)
		}
		order.Tags = append(order.Tags, tag)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_events (actor, action, entity, entity_id, detail)
		VALUES ($1, 'create', 'order', $2, $3)`,
		draft.Actor, order.ID, fmt.Sprintf("reference=%s items=%d", order.Reference, len(order.Items)),
	)
	if err != nil {
		return Order{}, fmt.Errorf("store: record audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("reference", order.Reference).
		Int("items", len(order.Items)).
		Msg("Order created")

	return order, nil
}
