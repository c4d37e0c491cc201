package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Create reserves stock and persists the order in one transaction. Each
// line's decrement is conditional (stock >= requested); the same UPDATE
// returns the catalog snapshot so the frozen line item reflects the product
// at the exact commit moment. Any shortage aborts the whole transaction and
// every short line is reported with its true availability.
func (r *Repository) Create(ctx context.Context, d domain.OrderDraft) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Stable lock order across concurrent commits.
	lines := make([]domain.CartLine, len(d.Lines))
	copy(lines, d.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	items := make([]domain.LineItem, 0, len(lines))
	var short []domain.Availability
	for _, line := range lines {
		var snap domain.ProductSnapshot
		err := tx.QueryRow(ctx, `
			UPDATE products SET stock = stock - $2
			WHERE id = $1 AND stock >= $2
			RETURNING name, image_url, category, price_cents
		`, line.ProductID, line.Quantity).Scan(&snap.Name, &snap.Image, &snap.Category, &snap.PriceCents)
		if errors.Is(err, pgx.ErrNoRows) {
			var available int
			err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, line.ProductID).Scan(&available)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Order{}, &domain.NotFoundError{Kind: "product", ID: line.ProductID}
			}
			if err != nil {
				return domain.Order{}, err
			}
			short = append(short, domain.Availability{
				ProductID:    line.ProductID,
				RequestedQty: line.Quantity,
				AvailableQty: available,
			})
			continue
		}
		if err != nil {
			return domain.Order{}, err
		}
		items = append(items, domain.NewLineItem(uuid.NewString(), line, snap))
	}
	if len(short) > 0 {
		// Rollback releases the decrements already applied in this tx.
		return domain.Order{}, &domain.OutOfStockError{Items: short}
	}

	o := domain.AssembleOrder(d, items, time.Now().UTC())

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, customer_id, status,
			subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
			payment_method, tracking_number,
			ship_name, ship_street, ship_city, ship_region, ship_country, ship_phone,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`, o.ID, o.Number, o.CustomerID, o.Status,
		o.SubtotalCents, o.ShippingCents, o.TaxCents, o.DiscountCents, o.TotalCents,
		o.PaymentMethod, o.TrackingNumber,
		o.ShipTo.Name, o.ShipTo.Street, o.ShipTo.City, o.ShipTo.Region, o.ShipTo.Country, o.ShipTo.Phone,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`
			INSERT INTO order_line_items (id, order_id, product_id, product_name, product_image,
				category, size, color, unit_price_cents, quantity, total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, it.ID, o.ID, it.ProductID, it.ProductName, it.ProductImage,
			it.Category, it.Size, it.Color, it.UnitPriceCents, it.Quantity, it.TotalCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:    o.ID,
		Number:     o.Number,
		CustomerID: o.CustomerID,
		TotalCents: o.TotalCents,
		Items:      o.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := insertOutbox(ctx, tx, "order", o.ID, "OrderCreated", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// Transition re-reads the persisted status under a row lock, applies the
// lifecycle rules, and on cancellation restores every line's stock in the
// same transaction.
func (r *Repository) Transition(ctx context.Context, id string, to domain.Status, by domain.Actor, trackingNumber string) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var from domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(from, to, by) {
		return domain.Order{}, &domain.InvalidTransitionError{Entity: "order", From: string(from), To: string(to)}
	}

	now := time.Now().UTC()
	if to == domain.StatusShipped && trackingNumber != "" {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, tracking_number=$3, updated_at=$4 WHERE id=$1`,
			id, to, trackingNumber, now)
	} else {
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`, id, to, now)
	}
	if err != nil {
		return domain.Order{}, err
	}

	var eventType string
	var payload []byte
	if to == domain.StatusCancelled {
		restocked, err := r.restoreStock(ctx, tx, id)
		if err != nil {
			return domain.Order{}, err
		}
		eventType = "OrderCancelled"
		payload, err = json.Marshal(domain.OrderCancelled{OrderID: id, RestockedUnits: restocked})
		if err != nil {
			return domain.Order{}, err
		}
	} else {
		eventType = "OrderStatusChanged"
		payload, err = json.Marshal(domain.OrderStatusChanged{OrderID: id, From: from, To: to})
		if err != nil {
			return domain.Order{}, err
		}
	}
	if err := insertOutbox(ctx, tx, "order", id, eventType, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, id)
}

// restoreStock is the inverse of Create's decrement, applied once when an
// order enters cancelled.
func (r *Repository) restoreStock(ctx context.Context, tx pgx.Tx, orderID string) (int, error) {
	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_line_items WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, err
	}
	type lineQty struct {
		productID string
		qty       int
	}
	var lines []lineQty
	for rows.Next() {
		var l lineQty
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			rows.Close()
			return 0, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	total := 0
	for _, l := range lines {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, l.productID, l.qty); err != nil {
			return 0, err
		}
		total += l.qty
	}
	return total, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_number, customer_id, status,
			subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
			payment_method, tracking_number,
			ship_name, ship_street, ship_city, ship_region, ship_country, ship_phone,
			created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status,
		&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
		&o.PaymentMethod, &o.TrackingNumber,
		&o.ShipTo.Name, &o.ShipTo.Street, &o.ShipTo.City, &o.ShipTo.Region, &o.ShipTo.Country, &o.ShipTo.Phone,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return domain.Order{}, err
	}

	o.Items, err = r.loadItems(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_number, customer_id, status,
			subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
			payment_method, tracking_number,
			ship_name, ship_street, ship_city, ship_region, ship_country, ship_phone,
			created_at, updated_at
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status,
			&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
			&o.PaymentMethod, &o.TrackingNumber,
			&o.ShipTo.Name, &o.ShipTo.Street, &o.ShipTo.City, &o.ShipTo.Region, &o.ShipTo.Country, &o.ShipTo.Phone,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, product_name, product_image, category, size, color,
			unit_price_cents, quantity, total_cents
		FROM order_line_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.ProductImage,
			&it.Category, &it.Size, &it.Color, &it.UnitPriceCents, &it.Quantity, &it.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')
	`, aggregateType, aggregateID, eventType, payload,
		map[string]string{"source": "storefront-coordinator"}, traceparent)
	return err
}
