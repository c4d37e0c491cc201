package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	price_cents BIGINT NOT NULL,
	stock       INT NOT NULL DEFAULT 0,
	CONSTRAINT products_stock_non_negative CHECK (stock >= 0)
);

CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	order_number    TEXT NOT NULL UNIQUE,
	customer_id     TEXT NOT NULL,
	status          TEXT NOT NULL,
	subtotal_cents  BIGINT NOT NULL,
	shipping_cents  BIGINT NOT NULL,
	tax_cents       BIGINT NOT NULL,
	discount_cents  BIGINT NOT NULL,
	total_cents     BIGINT NOT NULL,
	payment_method  TEXT NOT NULL,
	tracking_number TEXT,
	ship_name       TEXT NOT NULL,
	ship_street     TEXT NOT NULL,
	ship_city       TEXT NOT NULL,
	ship_region     TEXT NOT NULL DEFAULT '',
	ship_country    TEXT NOT NULL,
	ship_phone      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_id, created_at DESC);

CREATE TABLE IF NOT EXISTS order_line_items (
	id               TEXT PRIMARY KEY,
	order_id         TEXT NOT NULL REFERENCES orders(id),
	product_id       TEXT NOT NULL,
	product_name     TEXT NOT NULL,
	product_image    TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL DEFAULT '',
	size             TEXT NOT NULL DEFAULT '',
	color            TEXT NOT NULL DEFAULT '',
	unit_price_cents BIGINT NOT NULL,
	quantity         INT NOT NULL,
	total_cents      BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS order_line_items_order_idx ON order_line_items (order_id);

CREATE TABLE IF NOT EXISTS outbox (
	id             BIGSERIAL PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	type           TEXT NOT NULL,
	payload        JSONB NOT NULL,
	headers        JSONB,
	traceparent    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	relay_id       TEXT,
	lease_until    TIMESTAMPTZ,
	retry_count    INT NOT NULL DEFAULT 0,
	last_error     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (status, id);
`

// Migrate creates the order-side tables. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
