package domain

type ReturnRequested struct {
	ReturnID   string `json:"return_id"`
	Number     string `json:"number"`
	OrderID    string `json:"order_id"`
	LineItemID string `json:"line_item_id"`
	Quantity   int    `json:"quantity"`
	Reason     Reason `json:"reason"`
}

type ReturnResolved struct {
	ReturnID    string `json:"return_id"`
	Status      Status `json:"status"`
	RefundCents int64  `json:"refund_cents,omitempty"`
}

type RefundCompleted struct {
	ReturnID    string `json:"return_id"`
	OrderID     string `json:"order_id"`
	RefundCents int64  `json:"refund_cents"`
}
