package handler

import (
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/cbctracker/internal/ports"
)

// PredictionHandler serves the buy/sell recommendation.
type PredictionHandler struct {
	predictor ports.Predictor
	logger    *slog.Logger
}

func NewPredictionHandler(p ports.Predictor, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{predictor: p, logger: logHandler(logger, "prediction")}
}

// Predict returns {prediction, tokenToBuy}.
// POST /api/prediction
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	p, err := h.predictor.Predict(r.Context())
	if err != nil {
		h.logger.Error("prediction failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Failed to get prediction.",
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, p)
}
