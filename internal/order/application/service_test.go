package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

type fakeStock struct {
	levels map[string]int
}

func (f *fakeStock) Stock(_ context.Context, productID string) (int, error) {
	qty, ok := f.levels[productID]
	if !ok {
		return 0, &domain.NotFoundError{Kind: "product", ID: productID}
	}
	return qty, nil
}

type fakeRepo struct {
	createCalls int
	createErr   error
	created     domain.OrderDraft
	orders      map[string]domain.Order
	transitions []domain.Status
}

func (f *fakeRepo) Create(_ context.Context, d domain.OrderDraft) (domain.Order, error) {
	f.createCalls++
	f.created = d
	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}
	return domain.Order{ID: d.ID, Number: d.Number, CustomerID: d.CustomerID, Status: domain.StatusPending}, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, &domain.NotFoundError{Kind: "order", ID: id}
	}
	return o, nil
}

func (f *fakeRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) Transition(_ context.Context, id string, to domain.Status, by domain.Actor, _ string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if !domain.CanTransition(o.Status, to, by) {
		return domain.Order{}, &domain.InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(to)}
	}
	o.Status = to
	f.orders[id] = o
	f.transitions = append(f.transitions, to)
	return o, nil
}

func newTestService(repo *fakeRepo, stock *fakeStock) *Service {
	return NewService(slog.Default(), repo, stock)
}

func TestValidateCartStock(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeStock{levels: map[string]int{"p1": 5, "p2": 0}})

	report, err := svc.ValidateCartStock(context.Background(), []domain.CartLine{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.True(t, report[0].IsAvailable)
	assert.Equal(t, 5, report[0].AvailableQty)
	assert.False(t, report[1].IsAvailable)
	assert.Equal(t, 0, report[1].AvailableQty)
}

func TestValidateCartStockRejectsBadInput(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeStock{levels: map[string]int{"p1": 5}})

	_, err := svc.ValidateCartStock(context.Background(), []domain.CartLine{{ProductID: "p1", Quantity: 0}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.ValidateCartStock(context.Background(), []domain.CartLine{{ProductID: "missing", Quantity: 1}})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func validDraft() domain.OrderDraft {
	return domain.OrderDraft{
		CustomerID: "c1",
		Lines:      []domain.CartLine{{ProductID: "p1", Quantity: 2}},
		ShipTo: domain.Address{
			Name: "Asha Rao", Street: "12 Hill Rd", City: "Pune",
			Region: "MH", Country: "IN", Phone: "+91-900000000",
		},
	}
}

func TestCreateOrderAssignsIdentityAndDefaults(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeStock{})

	o, err := svc.CreateOrder(context.Background(), validDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, o.Number)
	assert.Equal(t, domain.PaymentCashOnDelivery, repo.created.PaymentMethod)
}

func TestCreateOrderValidationNeverReachesStorage(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeStock{})

	d := validDraft()
	d.Lines[0].Quantity = -2
	_, err := svc.CreateOrder(context.Background(), d)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, repo.createCalls)
}

func TestCreateOrderSurfacesOutOfStock(t *testing.T) {
	repo := &fakeRepo{createErr: &domain.OutOfStockError{Items: []domain.Availability{
		{ProductID: "p1", RequestedQty: 2, AvailableQty: 1},
	}}}
	svc := newTestService(repo, &fakeStock{})

	_, err := svc.CreateOrder(context.Background(), validDraft())
	var oos *domain.OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Len(t, oos.Items, 1)
	assert.Equal(t, 1, oos.Items[0].AvailableQty)
}

func TestCancelOrderOwnership(t *testing.T) {
	repo := &fakeRepo{orders: map[string]domain.Order{
		"o1": {ID: "o1", CustomerID: "c1", Status: domain.StatusPending},
	}}
	svc := newTestService(repo, &fakeStock{})

	_, err := svc.CancelOrder(context.Background(), "o1", "someone-else")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, repo.transitions)

	o, err := svc.CancelOrder(context.Background(), "o1", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
}

func TestCancelOrderOnlyWhilePending(t *testing.T) {
	repo := &fakeRepo{orders: map[string]domain.Order{
		"o1": {ID: "o1", CustomerID: "c1", Status: domain.StatusProcessing},
	}}
	svc := newTestService(repo, &fakeStock{})

	_, err := svc.CancelOrder(context.Background(), "o1", "c1")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestTransitionStatusRejectsUnknownStatus(t *testing.T) {
	repo := &fakeRepo{orders: map[string]domain.Order{}}
	svc := newTestService(repo, &fakeStock{})

	_, err := svc.TransitionStatus(context.Background(), "o1", domain.Status("archived"), "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
