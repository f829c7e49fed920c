package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

const (
	MsgMissingFields     = "Missing required fields"
	MsgInvalidAction     = "Invalid action"
	MsgNotFoundOrClosed  = "Position not found or already closed"
	MsgNotFound          = "Position not found"
	MsgOracleUnavailable = "price oracle unavailable, please enter price manually"

	maxBodyBytes = 1 << 20
)

// writeJSON marshals v as JSON and writes it with the given status.
// If marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error kinds onto HTTP statuses. Anything
// unclassified is logged and answered with fallback.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "position already exists")
	case errors.Is(err, domain.ErrOracleUnavailable):
		writeError(w, http.StatusBadGateway, MsgOracleUnavailable)
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// validationMessage strips the wrapping context and keeps the field message.
func validationMessage(err error) string {
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// logHandler attaches the handler name to the logger.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
