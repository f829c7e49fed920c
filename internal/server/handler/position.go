package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// clockSkew tolerates client clocks slightly ahead of the server when
// checking that openedAt is not in the future.
const clockSkew = time.Minute

// PositionService is what the handlers need from the lifecycle engine.
type PositionService interface {
	List(ctx context.Context) ([]domain.Position, error)
	Open(ctx context.Context, in domain.OpenInput) (domain.Position, error)
	Close(ctx context.Context, id string, closedAt time.Time, closePrice float64) (domain.Position, error)
	SimulateAt(ctx context.Context, id string, at time.Time, manual float64) (domain.Simulation, error)
	Delete(ctx context.Context, id string) error
}

// PositionHandler serves the position book.
type PositionHandler struct {
	svc    PositionService
	logger *slog.Logger
	now    func() time.Time
}

func NewPositionHandler(svc PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{svc: svc, logger: logHandler(logger, "positions"), now: time.Now}
}

// WithClock replaces the clock used for defaults and the future-open check.
func (h *PositionHandler) WithClock(now func() time.Time) *PositionHandler {
	h.now = now
	return h
}

// positionRequest is the body of POST /api/positions. Fields are read
// according to action.
type positionRequest struct {
	Action        string   `json:"action"`
	ID            string   `json:"id"`
	Side          string   `json:"side"`
	PriceUSD      *float64 `json:"priceUsd"`
	Amount        *float64 `json:"amount"`
	OpenedAt      string   `json:"openedAt"`
	ClosePriceUSD *float64 `json:"closePriceUsd"`
	ClosedAt      string   `json:"closedAt"`
}

type simulateRequest struct {
	At       string   `json:"at"`
	PriceUSD *float64 `json:"priceUsd"`
}

// ListPositions returns the book, newest first.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("list positions", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to fetch positions")
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// PostPosition dispatches on action: "open" or "close".
// POST /api/positions
func (h *PositionHandler) PostPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Action {
	case "open":
		h.open(w, r, req)
	case "close":
		h.close(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, MsgInvalidAction)
	}
}

func (h *PositionHandler) open(w http.ResponseWriter, r *http.Request, req positionRequest) {
	if req.Side == "" || req.PriceUSD == nil {
		writeError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	in := domain.OpenInput{Side: side, PriceUSD: *req.PriceUSD, Amount: req.Amount}
	if req.OpenedAt != "" {
		openedAt, err := domain.ParseISO(req.OpenedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		if openedAt.After(h.now().Add(clockSkew)) {
			writeError(w, http.StatusBadRequest, "openedAt cannot be in the future")
			return
		}
		in.OpenedAt = &openedAt
	}

	p, err := h.svc.Open(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err, MsgNotFound, "Failed to process position")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PositionHandler) close(w http.ResponseWriter, r *http.Request, req positionRequest) {
	// a zero closePriceUsd counts as missing
	if req.ID == "" || req.ClosePriceUSD == nil || *req.ClosePriceUSD == 0 || req.ClosedAt == "" {
		writeError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}
	closedAt, err := domain.ParseISO(req.ClosedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	p, err := h.svc.Close(r.Context(), req.ID, closedAt, *req.ClosePriceUSD)
	if err != nil {
		writeServiceError(w, h.logger, err, MsgNotFoundOrClosed, "Failed to process position")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePosition removes a position whatever its status.
// DELETE /api/positions/{id}
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err, MsgNotFound, "Failed to delete position")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SimulatePosition evaluates a hypothetical close. Without priceUsd the
// oracle prices the instant; without at the instant is now.
// POST /api/positions/{id}/simulate
func (h *PositionHandler) SimulatePosition(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	at := h.now().UTC()
	if req.At != "" {
		parsed, err := domain.ParseISO(req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		at = parsed
	}
	var manual float64
	if req.PriceUSD != nil {
		if !(*req.PriceUSD > 0) {
			writeError(w, http.StatusBadRequest, "priceUsd must be positive")
			return
		}
		manual = *req.PriceUSD
	}

	sim, err := h.svc.SimulateAt(r.Context(), r.PathValue("id"), at, manual)
	if err != nil {
		writeServiceError(w, h.logger, err, MsgNotFoundOrClosed, "Failed to simulate position")
		return
	}
	writeJSON(w, http.StatusOK, sim)
}
