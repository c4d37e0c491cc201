package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &domain.ValidationError{Field: "quantity", Msg: "must be positive"}, http.StatusBadRequest, "validation"},
		{"not found", &domain.NotFoundError{Kind: "order", ID: "o1"}, http.StatusNotFound, "not_found"},
		{"out of stock", &domain.OutOfStockError{Items: []domain.Availability{{ProductID: "p1"}}}, http.StatusConflict, "out_of_stock"},
		{"invalid transition", &domain.InvalidTransitionError{Entity: "order", From: "delivered", To: "cancelled"}, http.StatusConflict, "invalid_transition"},
		{"conflict", &domain.ConflictError{Msg: "active return exists"}, http.StatusConflict, "conflict"},
		{"storage fault", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, slog.Default(), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
		})
	}
}

func TestOutOfStockCarriesItems(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, slog.Default(), &domain.OutOfStockError{Items: []domain.Availability{
		{ProductID: "p1", RequestedQty: 2, AvailableQty: 0},
	}})

	var body struct {
		Items []domain.Availability `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].RequestedQty)
	assert.Equal(t, 0, body.Items[0].AvailableQty)
}
