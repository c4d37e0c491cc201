package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS returns (
	id               TEXT PRIMARY KEY,
	return_number    TEXT NOT NULL UNIQUE,
	order_id         TEXT NOT NULL REFERENCES orders(id),
	line_item_id     TEXT NOT NULL REFERENCES order_line_items(id),
	customer_id      TEXT NOT NULL,
	reason           TEXT NOT NULL,
	reason_details   TEXT NOT NULL DEFAULT '',
	quantity         INT NOT NULL,
	evidence_images  TEXT[] NOT NULL DEFAULT '{}',
	status           TEXT NOT NULL DEFAULT 'pending',
	rejection_reason TEXT NOT NULL DEFAULT '',
	admin_notes      TEXT NOT NULL DEFAULT '',
	refund_cents     BIGINT NOT NULL DEFAULT 0,
	resolved_at      TIMESTAMPTZ,
	refunded_at      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

-- A rejected return frees its line item for a new request; anything else
-- blocks further requests against the same item.
CREATE UNIQUE INDEX IF NOT EXISTS returns_one_active_per_line_item
	ON returns (line_item_id) WHERE status <> 'rejected';

CREATE INDEX IF NOT EXISTS returns_order_idx ON returns (order_id, created_at DESC);
`

// Migrate creates the returns tables. Requires the order-side schema first.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
