package domain

import (
	"time"

	orderdom "github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusProcessing Status = "processing"
	StatusRefunded   Status = "refunded"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusRefunded || s == StatusRejected
}

// CanTransition encodes the return lifecycle. The processing step is
// advisory: an approved return may settle directly.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusProcessing || to == StatusRefunded
	case StatusProcessing:
		return to == StatusRefunded
	}
	return false
}

type Reason string

const (
	ReasonDamaged        Reason = "damaged"
	ReasonWrongItem      Reason = "wrong_item"
	ReasonNotAsDescribed Reason = "not_as_described"
	ReasonQuality        Reason = "quality"
	ReasonChangedMind    Reason = "changed_mind"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonDamaged, ReasonWrongItem, ReasonNotAsDescribed, ReasonQuality, ReasonChangedMind:
		return true
	}
	return false
}

// Return is a per-line-item refund request. RefundCents is fixed no later
// than approval and never recomputed afterwards.
type Return struct {
	ID              string     `json:"id"`
	Number          string     `json:"number"`
	OrderID         string     `json:"order_id"`
	LineItemID      string     `json:"line_item_id"`
	CustomerID      string     `json:"customer_id"`
	Reason          Reason     `json:"reason"`
	ReasonDetails   string     `json:"reason_details"`
	Quantity        int        `json:"quantity"`
	EvidenceImages  []string   `json:"evidence_images"`
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	RefundCents     int64      `json:"refund_cents"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Active is any return not rejected. At most one active return may exist
// per order line item.
func (r Return) Active() bool {
	return r.Status != StatusRejected
}

type ReturnDraft struct {
	ID             string
	Number         string
	OrderID        string
	LineItemID     string
	CustomerID     string
	Reason         Reason
	ReasonDetails  string
	Quantity       int
	EvidenceImages []string
}

func (d ReturnDraft) Validate() error {
	if d.OrderID == "" {
		return &orderdom.ValidationError{Field: "order_id", Msg: "required"}
	}
	if d.LineItemID == "" {
		return &orderdom.ValidationError{Field: "line_item_id", Msg: "required"}
	}
	if !d.Reason.Valid() {
		return &orderdom.ValidationError{Field: "reason", Msg: "unknown reason"}
	}
	if d.Quantity <= 0 {
		return &orderdom.ValidationError{Field: "quantity", Msg: "must be positive"}
	}
	return nil
}

// ValidateRequestedQty rejects requests exceeding the ordered quantity
// before any state is persisted.
func ValidateRequestedQty(requested, ordered int) error {
	if requested > ordered {
		return &orderdom.ValidationError{Field: "quantity", Msg: "exceeds ordered quantity"}
	}
	return nil
}

// RefundAmount is proportional to the requested quantity at the line's
// frozen unit price.
func RefundAmount(unitPriceCents int64, quantity int) int64 {
	return unitPriceCents * int64(quantity)
}
