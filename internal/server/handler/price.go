package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// Quoter fetches a reference price; manual > 0 short-circuits the oracle.
type Quoter interface {
	Quote(ctx context.Context, at *time.Time, manual float64) (domain.PriceSample, error)
}

// PriceHandler exposes the price oracle.
type PriceHandler struct {
	quoter Quoter
	logger *slog.Logger
}

func NewPriceHandler(q Quoter, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{quoter: q, logger: logHandler(logger, "price")}
}

// GetPrice returns a PriceSample for ?at= (ISO-8601, optional) or the manual
// override ?manual=. On oracle failure it answers 502 so the client can ask
// for a manual price.
// GET /api/price
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var at *time.Time
	if v := q.Get("at"); v != "" {
		t, err := domain.ParseISO(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		at = &t
	}

	var manual float64
	if v := q.Get("manual"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) {
			writeError(w, http.StatusBadRequest, "manual price must be positive")
			return
		}
		manual = f
	}

	sample, err := h.quoter.Quote(r.Context(), at, manual)
	if err != nil {
		writeServiceError(w, h.logger, err, MsgNotFound, "Failed to fetch price")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}
