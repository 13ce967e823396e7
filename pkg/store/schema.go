package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlOrders = `
CREATE TABLE IF NOT EXISTS orders (
    id            BIGSERIAL    PRIMARY KEY,
    reference     TEXT         NOT NULL,
    customer_name TEXT         NOT NULL DEFAULT '',
    status        TEXT         NOT NULL DEFAULT 'pending',
    total_cents   BIGINT       NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_keyset
    ON orders (created_at DESC, id DESC);

CREATE INDEX IF NOT EXISTS idx_orders_status
    ON orders (status);
`

const ddlOrderItems = `
CREATE TABLE IF NOT EXISTS order_items (
    id         BIGSERIAL PRIMARY KEY,
    order_id   BIGINT    NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
    sku        TEXT      NOT NULL,
    name       TEXT      NOT NULL DEFAULT '',
    quantity   INT       NOT NULL DEFAULT 1,
    unit_cents BIGINT    NOT NULL DEFAULT 0,
    position   INT       NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id
    ON order_items (order_id, position);
`

const ddlOrderTags = `
CREATE TABLE IF NOT EXISTS order_tags (
    id       BIGSERIAL PRIMARY KEY,
    order_id BIGINT    NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
    label    TEXT      NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_tags_order_id
    ON order_tags (order_id);
`

const ddlAuditEvents = `
CREATE TABLE IF NOT EXISTS audit_events (
    id         BIGSERIAL    PRIMARY KEY,
    actor      TEXT         NOT NULL DEFAULT '',
    action     TEXT         NOT NULL,
    entity     TEXT         NOT NULL,
    entity_id  BIGINT       NOT NULL DEFAULT 0,
    detail     TEXT         NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_audit_events_keyset
    ON audit_events (created_at DESC, id DESC);
`

// Migrate ensures all tables and indexes exist. Statements are idempotent,
// so running against an already-migrated database is a no-op.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlOrders, ddlOrderItems, ddlOrderTags, ddlAuditEvents} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
