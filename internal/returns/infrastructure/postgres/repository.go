package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	orderdom "github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/internal/returns/domain"
	"github.com/rvashisth/storefront-coordinator/pkg/tracing"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Create checks the parent order's persisted status and the requested
// quantity, then inserts. The one-active-return-per-line-item invariant is
// enforced by a partial unique index, so two concurrent submissions cannot
// both land: the loser surfaces as a conflict.
func (r *Repository) Create(ctx context.Context, d domain.ReturnDraft) (domain.Return, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Return{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		orderStatus orderdom.Status
		customerID  string
		orderedQty  int
	)
	err = tx.QueryRow(ctx, `
		SELECT o.status, o.customer_id, li.quantity
		FROM order_line_items li
		JOIN orders o ON o.id = li.order_id
		WHERE li.id = $1 AND o.id = $2
	`, d.LineItemID, d.OrderID).Scan(&orderStatus, &customerID, &orderedQty)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "line item", ID: d.LineItemID}
	}
	if err != nil {
		return domain.Return{}, err
	}
	if d.CustomerID != "" && d.CustomerID != customerID {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "order", ID: d.OrderID}
	}
	if orderStatus != orderdom.StatusDelivered {
		return domain.Return{}, &orderdom.ConflictError{Msg: "order must be delivered before a return can be requested"}
	}
	if err := domain.ValidateRequestedQty(d.Quantity, orderedQty); err != nil {
		return domain.Return{}, err
	}

	if d.EvidenceImages == nil {
		d.EvidenceImages = []string{}
	}

	now := time.Now().UTC()
	ret := domain.Return{
		ID:             d.ID,
		Number:         d.Number,
		OrderID:        d.OrderID,
		LineItemID:     d.LineItemID,
		CustomerID:     customerID,
		Reason:         d.Reason,
		ReasonDetails:  d.ReasonDetails,
		Quantity:       d.Quantity,
		EvidenceImages: d.EvidenceImages,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO returns (id, return_number, order_id, line_item_id, customer_id,
			reason, reason_details, quantity, evidence_images, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, ret.ID, ret.Number, ret.OrderID, ret.LineItemID, ret.CustomerID,
		ret.Reason, ret.ReasonDetails, ret.Quantity, ret.EvidenceImages, ret.Status, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Return{}, &orderdom.ConflictError{Msg: "an active return already exists for this line item"}
		}
		return domain.Return{}, err
	}

	payload, err := json.Marshal(domain.ReturnRequested{
		ReturnID:   ret.ID,
		Number:     ret.Number,
		OrderID:    ret.OrderID,
		LineItemID: ret.LineItemID,
		Quantity:   ret.Quantity,
		Reason:     ret.Reason,
	})
	if err != nil {
		return domain.Return{}, err
	}
	if err := insertOutbox(ctx, tx, ret.ID, "ReturnRequested", payload); err != nil {
		return domain.Return{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Return{}, err
	}
	return ret, nil
}

// Resolve moves a pending return to approved or rejected. Approval fixes the
// refund amount from the line item's frozen unit price; it is never
// recomputed afterwards.
func (r *Repository) Resolve(ctx context.Context, id string, to domain.Status, rejectionReason, adminNotes string) (domain.Return, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Return{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		from      domain.Status
		qty       int
		unitPrice int64
	)
	err = tx.QueryRow(ctx, `
		SELECT r.status, r.quantity, li.unit_price_cents
		FROM returns r
		JOIN order_line_items li ON li.id = r.line_item_id
		WHERE r.id = $1
		FOR UPDATE OF r
	`, id).Scan(&from, &qty, &unitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	if err != nil {
		return domain.Return{}, err
	}
	if !domain.CanTransition(from, to) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(from), To: string(to)}
	}

	now := time.Now().UTC()
	var refund int64
	if to == domain.StatusApproved {
		refund = domain.RefundAmount(unitPrice, qty)
		_, err = tx.Exec(ctx, `
			UPDATE returns SET status=$2, admin_notes=$3, refund_cents=$4, resolved_at=$5, updated_at=$5
			WHERE id=$1
		`, id, to, adminNotes, refund, now)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE returns SET status=$2, rejection_reason=$3, admin_notes=$4, resolved_at=$5, updated_at=$5
			WHERE id=$1
		`, id, to, rejectionReason, adminNotes, now)
	}
	if err != nil {
		return domain.Return{}, err
	}

	payload, err := json.Marshal(domain.ReturnResolved{ReturnID: id, Status: to, RefundCents: refund})
	if err != nil {
		return domain.Return{}, err
	}
	if err := insertOutbox(ctx, tx, id, "ReturnResolved", payload); err != nil {
		return domain.Return{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Return{}, err
	}
	return r.Get(ctx, id)
}

// MarkProcessing records the optional handling step between approval and
// settlement.
func (r *Repository) MarkProcessing(ctx context.Context, id string) (domain.Return, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Return{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var from domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM returns WHERE id = $1 FOR UPDATE`, id).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	if err != nil {
		return domain.Return{}, err
	}
	if !domain.CanTransition(from, domain.StatusProcessing) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(from), To: string(domain.StatusProcessing)}
	}

	_, err = tx.Exec(ctx, `UPDATE returns SET status=$2, updated_at=$3 WHERE id=$1`,
		id, domain.StatusProcessing, time.Now().UTC())
	if err != nil {
		return domain.Return{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Return{}, err
	}
	return r.Get(ctx, id)
}

// Settle is idempotent: an already-refunded return commits no change and
// comes back with its original amount and timestamp. The status predicate on
// the UPDATE is the storage-level guard against double-crediting.
func (r *Repository) Settle(ctx context.Context, id string) (domain.Return, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Return{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		from    domain.Status
		orderID string
		refund  int64
	)
	err = tx.QueryRow(ctx, `SELECT status, order_id, refund_cents FROM returns WHERE id = $1 FOR UPDATE`, id).
		Scan(&from, &orderID, &refund)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	if err != nil {
		return domain.Return{}, err
	}
	if from == domain.StatusRefunded {
		if err := tx.Commit(ctx); err != nil {
			return domain.Return{}, err
		}
		return r.Get(ctx, id)
	}
	if !domain.CanTransition(from, domain.StatusRefunded) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(from), To: string(domain.StatusRefunded)}
	}

	now := time.Now().UTC()
	ct, err := tx.Exec(ctx, `
		UPDATE returns SET status=$2, refunded_at=$3, updated_at=$3
		WHERE id=$1 AND status IN ('approved','processing')
	`, id, domain.StatusRefunded, now)
	if err != nil {
		return domain.Return{}, err
	}
	if ct.RowsAffected() != 1 {
		return domain.Return{}, &orderdom.ConflictError{Msg: "return changed concurrently, re-fetch and retry"}
	}

	payload, err := json.Marshal(domain.RefundCompleted{ReturnID: id, OrderID: orderID, RefundCents: refund})
	if err != nil {
		return domain.Return{}, err
	}
	if err := insertOutbox(ctx, tx, id, "RefundCompleted", payload); err != nil {
		return domain.Return{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Return{}, err
	}
	return r.Get(ctx, id)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Return, error) {
	ret, err := scanReturn(r.pool.QueryRow(ctx, selectReturn+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	return ret, err
}

func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]domain.Return, error) {
	rows, err := r.pool.Query(ctx, selectReturn+` WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

const selectReturn = `
	SELECT id, return_number, order_id, line_item_id, customer_id,
		reason, reason_details, quantity, evidence_images, status,
		rejection_reason, admin_notes, refund_cents,
		resolved_at, refunded_at, created_at, updated_at
	FROM returns`

func scanReturn(row pgx.Row) (domain.Return, error) {
	var ret domain.Return
	err := row.Scan(&ret.ID, &ret.Number, &ret.OrderID, &ret.LineItemID, &ret.CustomerID,
		&ret.Reason, &ret.ReasonDetails, &ret.Quantity, &ret.EvidenceImages, &ret.Status,
		&ret.RejectionReason, &ret.AdminNotes, &ret.RefundCents,
		&ret.ResolvedAt, &ret.RefundedAt, &ret.CreatedAt, &ret.UpdatedAt)
	return ret, err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')
	`, "return", aggregateID, eventType, payload,
		map[string]string{"source": "storefront-coordinator"}, tracing.Traceparent(ctx))
	return err
}
