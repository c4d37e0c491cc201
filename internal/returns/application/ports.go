package application

import (
	"context"

	"github.com/rvashisth/storefront-coordinator/internal/returns/domain"
)

// ReturnRepository owns the return lifecycle's persistence. Create must
// check-and-insert atomically against the one-active-return-per-line-item
// invariant; every transition re-reads the persisted status under lock; and
// Settle must be idempotent for already-refunded returns.
type ReturnRepository interface {
	Create(ctx context.Context, draft domain.ReturnDraft) (domain.Return, error)
	Get(ctx context.Context, id string) (domain.Return, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Return, error)
	Resolve(ctx context.Context, id string, to domain.Status, rejectionReason, adminNotes string) (domain.Return, error)
	MarkProcessing(ctx context.Context, id string) (domain.Return, error)
	Settle(ctx context.Context, id string) (domain.Return, error)
}
