package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/internal/returns/domain"
)

type fakeRepo struct {
	createCalls int
	createErr   error
	created     domain.ReturnDraft
	returns     map[string]domain.Return
	settles     int
}

func (f *fakeRepo) Create(_ context.Context, d domain.ReturnDraft) (domain.Return, error) {
	f.createCalls++
	f.created = d
	if f.createErr != nil {
		return domain.Return{}, f.createErr
	}
	return domain.Return{ID: d.ID, Number: d.Number, Status: domain.StatusPending}, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domain.Return, error) {
	ret, ok := f.returns[id]
	if !ok {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	return ret, nil
}

func (f *fakeRepo) ListByOrder(_ context.Context, orderID string) ([]domain.Return, error) {
	var out []domain.Return
	for _, ret := range f.returns {
		if ret.OrderID == orderID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (f *fakeRepo) Resolve(_ context.Context, id string, to domain.Status, rejectionReason, notes string) (domain.Return, error) {
	ret, ok := f.returns[id]
	if !ok {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	if !domain.CanTransition(ret.Status, to) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(ret.Status), To: string(to)}
	}
	ret.Status = to
	ret.RejectionReason = rejectionReason
	ret.AdminNotes = notes
	if to == domain.StatusApproved {
		ret.RefundCents = domain.RefundAmount(1999, ret.Quantity)
	}
	f.returns[id] = ret
	return ret, nil
}

func (f *fakeRepo) MarkProcessing(_ context.Context, id string) (domain.Return, error) {
	ret := f.returns[id]
	if !domain.CanTransition(ret.Status, domain.StatusProcessing) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(ret.Status), To: string(domain.StatusProcessing)}
	}
	ret.Status = domain.StatusProcessing
	f.returns[id] = ret
	return ret, nil
}

func (f *fakeRepo) Settle(_ context.Context, id string) (domain.Return, error) {
	ret, ok := f.returns[id]
	if !ok {
		return domain.Return{}, &orderdom.NotFoundError{Kind: "return", ID: id}
	}
	if ret.Status == domain.StatusRefunded {
		return ret, nil
	}
	if !domain.CanTransition(ret.Status, domain.StatusRefunded) {
		return domain.Return{}, &orderdom.InvalidTransitionError{Entity: "return", From: string(ret.Status), To: string(domain.StatusRefunded)}
	}
	f.settles++
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	ret.Status = domain.StatusRefunded
	ret.RefundedAt = &now
	f.returns[id] = ret
	return ret, nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(slog.Default(), repo)
}

func validDraft() domain.ReturnDraft {
	return domain.ReturnDraft{
		OrderID:    "o1",
		LineItemID: "li1",
		Reason:     domain.ReasonDamaged,
		Quantity:   1,
	}
}

func TestCreateReturnAssignsIdentity(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	ret, err := svc.CreateReturn(context.Background(), validDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, ret.ID)
	assert.Regexp(t, `^RET-\d{8}-[0-9A-F]{8}$`, ret.Number)
}

func TestCreateReturnValidationNeverReachesStorage(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	d := validDraft()
	d.Quantity = 0
	_, err := svc.CreateReturn(context.Background(), d)

	var verr *orderdom.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, repo.createCalls)
}

func TestCreateReturnSurfacesConflict(t *testing.T) {
	repo := &fakeRepo{createErr: &orderdom.ConflictError{Msg: "an active return already exists for this line item"}}
	svc := newTestService(repo)

	_, err := svc.CreateReturn(context.Background(), validDraft())
	var conflict *orderdom.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestRejectRequiresReason(t *testing.T) {
	repo := &fakeRepo{returns: map[string]domain.Return{
		"r1": {ID: "r1", Status: domain.StatusPending},
	}}
	svc := newTestService(repo)

	_, err := svc.Reject(context.Background(), "r1", "   ", "")
	var verr *orderdom.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rejection_reason", verr.Field)

	ret, err := svc.Reject(context.Background(), "r1", "no evidence of damage", "checked photos")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, ret.Status)
	assert.Equal(t, "no evidence of damage", ret.RejectionReason)
}

func TestApproveFixesRefund(t *testing.T) {
	repo := &fakeRepo{returns: map[string]domain.Return{
		"r1": {ID: "r1", Status: domain.StatusPending, Quantity: 2},
	}}
	svc := newTestService(repo)

	ret, err := svc.Approve(context.Background(), "r1", "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, ret.Status)
	assert.Equal(t, int64(3998), ret.RefundCents)
}

func TestCompleteRefundIsIdempotent(t *testing.T) {
	repo := &fakeRepo{returns: map[string]domain.Return{
		"r1": {ID: "r1", Status: domain.StatusApproved, RefundCents: 3998},
	}}
	svc := newTestService(repo)

	first, err := svc.CompleteRefund(context.Background(), "r1")
	require.NoError(t, err)
	second, err := svc.CompleteRefund(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, first.RefundCents, second.RefundCents)
	assert.Equal(t, first.RefundedAt, second.RefundedAt)
	assert.Equal(t, 1, repo.settles, "monetary effect must happen exactly once")
}

func TestProcessingIsOptional(t *testing.T) {
	repo := &fakeRepo{returns: map[string]domain.Return{
		"direct":  {ID: "direct", Status: domain.StatusApproved},
		"stepped": {ID: "stepped", Status: domain.StatusApproved},
	}}
	svc := newTestService(repo)

	ret, err := svc.CompleteRefund(context.Background(), "direct")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, ret.Status)

	ret, err = svc.StartProcessing(context.Background(), "stepped")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, ret.Status)
	ret, err = svc.CompleteRefund(context.Background(), "stepped")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, ret.Status)
}
