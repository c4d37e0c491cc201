package domain

import (
	"strings"
	"time"
)

const PaymentCashOnDelivery = "cash_on_delivery"

// Address is the resolved shipping-address snapshot supplied by the caller.
// The coordinator never resolves addresses itself.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// Pricing carries the pre-computed charge components. Discounts, tax and
// shipping rates are calculated upstream.
type Pricing struct {
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	DiscountCents int64 `json:"discount_cents"`
}

// CartLine is the client-held, ephemeral cart entry. Its unit price is a
// display snapshot only; the authoritative price is read from the catalog at
// commit time.
type CartLine struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	Size           string `json:"size"`
	Color          string `json:"color"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// ProductSnapshot is the catalog state captured at the moment an order is
// committed. Orders embed it so later catalog edits never alter history.
type ProductSnapshot struct {
	Name       string
	Image      string
	Category   string
	PriceCents int64
}

// LineItem is immutable once the order is created.
type LineItem struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	ProductImage   string `json:"product_image"`
	Category       string `json:"category"`
	Size           string `json:"size"`
	Color          string `json:"color"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	TotalCents     int64  `json:"total_cents"`
}

type Order struct {
	ID             string     `json:"id"`
	Number         string     `json:"number"`
	CustomerID     string     `json:"customer_id"`
	Items          []LineItem `json:"items"`
	ShipTo         Address    `json:"ship_to"`
	SubtotalCents  int64      `json:"subtotal_cents"`
	ShippingCents  int64      `json:"shipping_cents"`
	TaxCents       int64      `json:"tax_cents"`
	DiscountCents  int64      `json:"discount_cents"`
	TotalCents     int64      `json:"total_cents"`
	PaymentMethod  string     `json:"payment_method"`
	Status         Status     `json:"status"`
	TrackingNumber *string    `json:"tracking_number,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// OrderDraft is everything the caller supplies to commit an order. Snapshots
// and totals are filled in by the committer inside the same transaction that
// reserves stock.
type OrderDraft struct {
	ID            string
	Number        string
	CustomerID    string
	Lines         []CartLine
	ShipTo        Address
	Pricing       Pricing
	PaymentMethod string
}

func (d OrderDraft) Validate() error {
	if d.CustomerID == "" {
		return &ValidationError{Field: "customer_id", Msg: "required"}
	}
	if len(d.Lines) == 0 {
		return &ValidationError{Field: "lines", Msg: "order must contain at least one line"}
	}
	for _, l := range d.Lines {
		if l.ProductID == "" {
			return &ValidationError{Field: "lines.product_id", Msg: "required"}
		}
		if l.Quantity <= 0 {
			return &ValidationError{Field: "lines.quantity", Msg: "must be positive"}
		}
	}
	for field, v := range map[string]string{
		"ship_to.name":    d.ShipTo.Name,
		"ship_to.street":  d.ShipTo.Street,
		"ship_to.city":    d.ShipTo.City,
		"ship_to.country": d.ShipTo.Country,
		"ship_to.phone":   d.ShipTo.Phone,
	} {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: field, Msg: "required"}
		}
	}
	if d.Pricing.ShippingCents < 0 || d.Pricing.TaxCents < 0 || d.Pricing.DiscountCents < 0 {
		return &ValidationError{Field: "pricing", Msg: "charge components must be non-negative"}
	}
	return nil
}

// NewLineItem freezes a cart line against the catalog snapshot taken at
// commit time. The cart's own price snapshot is deliberately ignored.
func NewLineItem(id string, line CartLine, snap ProductSnapshot) LineItem {
	return LineItem{
		ID:             id,
		ProductID:      line.ProductID,
		ProductName:    snap.Name,
		ProductImage:   snap.Image,
		Category:       snap.Category,
		Size:           line.Size,
		Color:          line.Color,
		UnitPriceCents: snap.PriceCents,
		Quantity:       line.Quantity,
		TotalCents:     snap.PriceCents * int64(line.Quantity),
	}
}

// AssembleOrder computes totals from frozen line items. Invariant:
// total = subtotal + shipping + tax - discount.
func AssembleOrder(d OrderDraft, items []LineItem, now time.Time) Order {
	var subtotal int64
	for _, it := range items {
		subtotal += it.TotalCents
	}
	return Order{
		ID:            d.ID,
		Number:        d.Number,
		CustomerID:    d.CustomerID,
		Items:         items,
		ShipTo:        d.ShipTo,
		SubtotalCents: subtotal,
		ShippingCents: d.Pricing.ShippingCents,
		TaxCents:      d.Pricing.TaxCents,
		DiscountCents: d.Pricing.DiscountCents,
		TotalCents:    subtotal + d.Pricing.ShippingCents + d.Pricing.TaxCents - d.Pricing.DiscountCents,
		PaymentMethod: d.PaymentMethod,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
