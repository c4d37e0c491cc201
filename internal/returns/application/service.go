package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	orderdom "github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/internal/returns/domain"
)

type Service struct {
	log  *slog.Logger
	repo ReturnRepository
}

func NewService(log *slog.Logger, repo ReturnRepository) *Service {
	return &Service{log: log, repo: repo}
}

// CreateReturn opens a refund request against one line item of a delivered
// order. Parent-status and quantity preconditions live in the repository,
// inside the same transaction as the insert.
func (s *Service) CreateReturn(ctx context.Context, draft domain.ReturnDraft) (domain.Return, error) {
	draft.ID = uuid.NewString()
	draft.Number = newReturnNumber()
	if err := draft.Validate(); err != nil {
		return domain.Return{}, err
	}

	ret, err := s.repo.Create(ctx, draft)
	if err != nil {
		return domain.Return{}, err
	}
	s.log.Info("return requested", "return_id", ret.ID, "order_id", ret.OrderID, "line_item_id", ret.LineItemID)
	return ret, nil
}

// Approve fixes the refund amount; it never changes after this point.
func (s *Service) Approve(ctx context.Context, returnID, notes string) (domain.Return, error) {
	ret, err := s.repo.Resolve(ctx, returnID, domain.StatusApproved, "", notes)
	if err != nil {
		return domain.Return{}, err
	}
	s.log.Info("return approved", "return_id", returnID, "refund_cents", ret.RefundCents)
	return ret, nil
}

// Reject requires a non-empty reason and frees the line item for a new
// request.
func (s *Service) Reject(ctx context.Context, returnID, reason, notes string) (domain.Return, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Return{}, &orderdom.ValidationError{Field: "rejection_reason", Msg: "required"}
	}
	ret, err := s.repo.Resolve(ctx, returnID, domain.StatusRejected, reason, notes)
	if err != nil {
		return domain.Return{}, err
	}
	s.log.Info("return rejected", "return_id", returnID)
	return ret, nil
}

// StartProcessing is the optional intermediate step before settlement.
func (s *Service) StartProcessing(ctx context.Context, returnID string) (domain.Return, error) {
	return s.repo.MarkProcessing(ctx, returnID)
}

// CompleteRefund settles the approved amount. Safe to call repeatedly:
// settling an already-refunded return is a no-op success with the original
// amount and timestamp.
func (s *Service) CompleteRefund(ctx context.Context, returnID string) (domain.Return, error) {
	ret, err := s.repo.Settle(ctx, returnID)
	if err != nil {
		return domain.Return{}, err
	}
	s.log.Info("refund settled", "return_id", returnID, "refund_cents", ret.RefundCents)
	return ret, nil
}

func (s *Service) GetReturn(ctx context.Context, returnID string) (domain.Return, error) {
	return s.repo.Get(ctx, returnID)
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]domain.Return, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

func newReturnNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "RET-" + time.Now().UTC().Format("20060102") + "-" + suffix
}
