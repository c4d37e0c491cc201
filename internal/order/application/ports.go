package application

import (
	"context"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

// OrderRepository is the sole synchronization point for order state. Create
// must reserve stock and persist the order as one unit of work; Transition
// must validate against the persisted status, not a stale copy.
type OrderRepository interface {
	Create(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	Transition(ctx context.Context, id string, to domain.Status, by domain.Actor, trackingNumber string) (domain.Order, error)
}

// StockReader reads live catalog availability. Results are advisory the
// moment they are returned; only the committer's conditional decrement is
// authoritative.
type StockReader interface {
	Stock(ctx context.Context, productID string) (int, error)
}
