package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() OrderDraft {
	return OrderDraft{
		ID:         "o1",
		Number:     "ORD-20260827-AAAA1111",
		CustomerID: "c1",
		Lines: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		ShipTo: Address{
			Name: "Asha Rao", Street: "12 Hill Rd", City: "Pune",
			Region: "MH", Country: "IN", Phone: "+91-900000000",
		},
		Pricing:       Pricing{ShippingCents: 500, TaxCents: 300, DiscountCents: 200},
		PaymentMethod: PaymentCashOnDelivery,
	}
}

func TestAssembleOrderTotals(t *testing.T) {
	d := validDraft()
	items := []LineItem{
		NewLineItem("li1", d.Lines[0], ProductSnapshot{Name: "Shirt", PriceCents: 1999}),
		NewLineItem("li2", d.Lines[1], ProductSnapshot{Name: "Cap", PriceCents: 750}),
	}

	require.Equal(t, int64(3998), items[0].TotalCents)
	require.Equal(t, int64(750), items[1].TotalCents)

	o := AssembleOrder(d, items, time.Now().UTC())
	assert.Equal(t, int64(4748), o.SubtotalCents)
	assert.Equal(t, o.SubtotalCents+o.ShippingCents+o.TaxCents-o.DiscountCents, o.TotalCents)
	assert.Equal(t, int64(4748+500+300-200), o.TotalCents)
	assert.Equal(t, StatusPending, o.Status)
}

func TestNewLineItemIgnoresCartPrice(t *testing.T) {
	line := CartLine{ProductID: "p1", Quantity: 3, UnitPriceCents: 100}
	it := NewLineItem("li1", line, ProductSnapshot{Name: "Shirt", PriceCents: 1500})
	assert.Equal(t, int64(1500), it.UnitPriceCents)
	assert.Equal(t, int64(4500), it.TotalCents)
}

func TestOrderDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OrderDraft)
		field  string
	}{
		{"missing customer", func(d *OrderDraft) { d.CustomerID = "" }, "customer_id"},
		{"no lines", func(d *OrderDraft) { d.Lines = nil }, "lines"},
		{"zero quantity", func(d *OrderDraft) { d.Lines[0].Quantity = 0 }, "lines.quantity"},
		{"negative quantity", func(d *OrderDraft) { d.Lines[1].Quantity = -1 }, "lines.quantity"},
		{"missing product", func(d *OrderDraft) { d.Lines[0].ProductID = "" }, "lines.product_id"},
		{"missing street", func(d *OrderDraft) { d.ShipTo.Street = " " }, "ship_to.street"},
		{"missing phone", func(d *OrderDraft) { d.ShipTo.Phone = "" }, "ship_to.phone"},
		{"negative discount", func(d *OrderDraft) { d.Pricing.DiscountCents = -1 }, "pricing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := d.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	assert.NoError(t, validDraft().Validate())
}
