package domain

type OrderCreated struct {
	OrderID    string     `json:"order_id"`
	Number     string     `json:"number"`
	CustomerID string     `json:"customer_id"`
	TotalCents int64      `json:"total_cents"`
	Items      []LineItem `json:"items"`
}

type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

type OrderCancelled struct {
	OrderID        string `json:"order_id"`
	RestockedUnits int    `json:"restocked_units"`
}
