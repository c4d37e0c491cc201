package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

type Service struct {
	log   *slog.Logger
	repo  OrderRepository
	stock StockReader
}

func NewService(log *slog.Logger, repo OrderRepository, stock StockReader) *Service {
	return &Service{log: log, repo: repo, stock: stock}
}

// ValidateCartStock reads current availability for every cart line. Purely
// advisory: it drives UI affordances while the cart changes, and nothing
// else trusts it.
func (s *Service) ValidateCartStock(ctx context.Context, lines []domain.CartLine) ([]domain.Availability, error) {
	report := make([]domain.Availability, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, &domain.ValidationError{Field: "product_id", Msg: "required"}
		}
		if l.Quantity <= 0 {
			return nil, &domain.ValidationError{Field: "quantity", Msg: "must be positive"}
		}
		qty, err := s.stock.Stock(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		report = append(report, domain.Availability{
			ProductID:    l.ProductID,
			RequestedQty: l.Quantity,
			AvailableQty: qty,
			IsAvailable:  qty >= l.Quantity,
		})
	}
	return report, nil
}

// CreateOrder commits the cart. Stock re-validation happens inside the
// repository as a conditional decrement; a failed commit leaves nothing
// behind and the caller keeps the cart.
func (s *Service) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	draft.ID = uuid.NewString()
	draft.Number = newOrderNumber()
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = domain.PaymentCashOnDelivery
	}
	if err := draft.Validate(); err != nil {
		return domain.Order{}, err
	}

	o, err := s.repo.Create(ctx, draft)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order committed", "order_id", o.ID, "number", o.Number, "total_cents", o.TotalCents)
	return o, nil
}

// CancelOrder is the customer self-service path, legal only while the order
// is pending. Ownership is checked before the transition.
func (s *Service) CancelOrder(ctx context.Context, orderID, customerID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.CustomerID != customerID {
		return domain.Order{}, &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	return s.repo.Transition(ctx, orderID, domain.StatusCancelled, domain.ActorCustomer, "")
}

// TransitionStatus is the staff path for any lifecycle edge, including
// staff cancellation of in-flight orders.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, to domain.Status, trackingNumber string) (domain.Order, error) {
	if !to.Valid() {
		return domain.Order{}, &domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	o, err := s.repo.Transition(ctx, orderID, to, domain.ActorStaff, trackingNumber)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order transitioned", "order_id", orderID, "to", to)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	if customerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Msg: "required"}
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + time.Now().UTC().Format("20060102") + "-" + suffix
}
