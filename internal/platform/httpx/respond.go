package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps the coordinator's typed outcomes onto HTTP statuses. Anything
// untyped is a storage-layer fault: logged, and surfaced as a generic 500
// with retry guidance.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		transition *domain.InvalidTransitionError
		oos        *domain.OutOfStockError
	)
	switch {
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "field": validation.Field, "message": validation.Msg})
	case errors.As(err, &notFound):
		JSON(w, http.StatusNotFound, map[string]any{"error": "not_found", "message": notFound.Error()})
	case errors.As(err, &oos):
		JSON(w, http.StatusConflict, map[string]any{"error": "out_of_stock", "items": oos.Items})
	case errors.As(err, &transition):
		JSON(w, http.StatusConflict, map[string]any{"error": "invalid_transition", "message": transition.Error()})
	case errors.As(err, &conflict):
		JSON(w, http.StatusConflict, map[string]any{"error": "conflict", "message": conflict.Msg})
	default:
		log.Error("request failed", "err", err)
		JSON(w, http.StatusInternalServerError, map[string]any{"error": "internal", "message": "temporary failure, please retry"})
	}
}
