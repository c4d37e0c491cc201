package domain

import "fmt"

// The coordinator returns typed, expected outcomes; only storage-layer
// failures propagate as plain errors.

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError signals a lost race against concurrent state: the caller
// should re-fetch and redo the user-facing action, not blindly retry.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

// Availability is one line of a stock report.
type Availability struct {
	ProductID    string `json:"product_id"`
	RequestedQty int    `json:"requested_qty"`
	AvailableQty int    `json:"available_qty"`
	IsAvailable  bool   `json:"is_available"`
}

// OutOfStockError aborts a commit and carries every unavailable line so the
// caller can show a precise remediation message. Quantities are never
// silently reduced.
type OutOfStockError struct {
	Items []Availability
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%d line(s) out of stock", len(e.Items))
}
