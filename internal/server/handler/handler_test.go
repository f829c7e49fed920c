package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/adapters/storage"
	"github.com/alejandrodnm/cbctracker/internal/application/positions"
	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/server/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

type stubOracle struct {
	price float64
	err   error
}

func (s stubOracle) FetchPrice(_ context.Context, _ *time.Time, manual float64) (domain.PriceSample, error) {
	if manual > 0 {
		return domain.PriceSample{Price: manual, FetchedAt: now, Source: domain.SourceManual}, nil
	}
	if s.err != nil {
		return domain.PriceSample{}, s.err
	}
	return domain.PriceSample{Price: s.price, FetchedAt: now, Source: domain.SourceLive}, nil
}

type env struct {
	engine    *positions.Engine
	positions *handler.PositionHandler
	price     *handler.PriceHandler
}

func newEnv(t *testing.T, oracle stubOracle) env {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := storage.NewPositionStore(storage.NewMemoryKV(), "", "")
	engine := positions.New(store, oracle, positions.WithClock(func() time.Time { return now }))
	return env{
		engine:    engine,
		positions: handler.NewPositionHandler(engine, logger).WithClock(func() time.Time { return now }),
		price:     handler.NewPriceHandler(engine, logger),
	}
}

func post(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPostPosition_OpenThenClose(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2100})

	rec := post(t, e.positions.PostPosition, "/api/positions",
		`{"action":"open","side":"BUY","priceUsd":2000,"openedAt":"2025-05-10T09:30:00.000Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	opened := decodeMap(t, rec)
	assert.Equal(t, "OPEN", opened["status"])
	assert.Equal(t, "2025-05-10T09:30:00.000Z", opened["openedAt"])
	assert.NotContains(t, opened, "closedAt")
	id := opened["id"].(string)

	rec = post(t, e.positions.PostPosition, "/api/positions",
		`{"action":"close","id":"`+id+`","closePriceUsd":2200,"closedAt":"2025-05-10T11:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decodeMap(t, rec)
	assert.Equal(t, "CLOSED", closed["status"])
	assert.InDelta(t, 200, closed["profitLoss"], 1e-9)
	assert.InDelta(t, 10, closed["profitLossPercent"], 1e-9)

	rec = post(t, e.positions.PostPosition, "/api/positions",
		`{"action":"close","id":"`+id+`","closePriceUsd":2300,"closedAt":"2025-05-10T11:30:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handler.MsgNotFoundOrClosed, decodeMap(t, rec)["error"])
}

func TestPostPosition_BadRequests(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2100})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown action", `{"action":"hold"}`, handler.MsgInvalidAction},
		{"no action", `{}`, handler.MsgInvalidAction},
		{"close missing id", `{"action":"close","closePriceUsd":2200,"closedAt":"2025-05-10T11:00:00Z"}`, handler.MsgMissingFields},
		{"close zero price", `{"action":"close","id":"x","closePriceUsd":0,"closedAt":"2025-05-10T11:00:00Z"}`, handler.MsgMissingFields},
		{"close missing closedAt", `{"action":"close","id":"x","closePriceUsd":2200}`, handler.MsgMissingFields},
		{"open missing price", `{"action":"open","side":"BUY"}`, handler.MsgMissingFields},
		{"open bad side", `{"action":"open","side":"HOLD","priceUsd":2000}`, `side must be BUY or SELL, got "HOLD"`},
		{"open negative price", `{"action":"open","side":"SELL","priceUsd":-1}`, "priceUsd must be positive"},
		{"open future", `{"action":"open","side":"BUY","priceUsd":2000,"openedAt":"2025-05-11T12:00:00Z"}`, "openedAt cannot be in the future"},
		{"open bad time", `{"action":"open","side":"BUY","priceUsd":2000,"openedAt":"yesterday"}`, `invalid timestamp "yesterday"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, e.positions.PostPosition, "/api/positions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeMap(t, rec)["error"])
		})
	}

	rec := post(t, e.positions.PostPosition, "/api/positions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	all, err := e.engine.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPostPosition_CloseUnknown(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2100})

	rec := post(t, e.positions.PostPosition, "/api/positions",
		`{"action":"close","id":"nope","closePriceUsd":2200,"closedAt":"2025-05-10T11:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPositions(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2100})

	rec := httptest.NewRecorder()
	e.positions.ListPositions(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, at := range []string{"2025-05-09T09:00:00Z", "2025-05-10T09:00:00Z"} {
		post(t, e.positions.PostPosition, "/api/positions",
			`{"action":"open","side":"BUY","priceUsd":2000,"openedAt":"`+at+`"}`)
	}

	rec = httptest.NewRecorder()
	e.positions.ListPositions(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2025-05-10T09:00:00.000Z", list[0]["openedAt"])
}

func TestDeletePosition(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2100})
	p, err := e.engine.Open(context.Background(), domain.OpenInput{Side: domain.SideBuy, PriceUSD: 2000})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/positions/{id}", e.positions.DeletePosition)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/positions/"+p.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/positions/"+p.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulatePosition(t *testing.T) {
	e := newEnv(t, stubOracle{price: 2400})
	openedAt := now.Add(-6 * time.Hour)
	p, err := e.engine.Open(context.Background(), domain.OpenInput{Side: domain.SideBuy, PriceUSD: 2000, OpenedAt: &openedAt})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/positions/{id}/simulate", e.positions.SimulatePosition)
	simulate := func(id, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/positions/"+id+"/simulate", bytes.NewBufferString(body)))
		return rec
	}

	rec := simulate(p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeMap(t, rec)
	assert.Equal(t, "live_quote", got["priceSource"])
	assert.InDelta(t, 400, got["profitLoss"], 1e-9)
	assert.InDelta(t, 6, got["durationHours"], 1e-9)

	rec = simulate(p.ID, `{"at":"2025-05-10T08:00:00Z","priceUsd":1900}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeMap(t, rec)
	assert.Equal(t, "manual", got["priceSource"])
	assert.InDelta(t, -5, got["variationPercent"], 1e-9)
	assert.InDelta(t, 2, got["durationHours"], 1e-9)

	assert.Equal(t, http.StatusBadRequest, simulate(p.ID, `{"priceUsd":0}`).Code)
	assert.Equal(t, http.StatusNotFound, simulate("nope", "").Code)

	stored, err := e.engine.List(context.Background())
	require.NoError(t, err)
	assert.True(t, stored[0].IsOpen())
}

func TestSimulatePosition_OracleDown(t *testing.T) {
	e := newEnv(t, stubOracle{err: domain.ErrOracleUnavailable})
	p, err := e.engine.Open(context.Background(), domain.OpenInput{Side: domain.SideBuy, PriceUSD: 2000})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/positions/{id}/simulate", e.positions.SimulatePosition)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/positions/"+p.ID+"/simulate", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, handler.MsgOracleUnavailable, decodeMap(t, rec)["error"])
}

func TestGetPrice(t *testing.T) {
	e := newEnv(t, stubOracle{price: 3100})

	get := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.price.GetPrice(rec, httptest.NewRequest(http.MethodGet, "/api/price"+query, nil))
		return rec
	}

	rec := get("")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeMap(t, rec)
	assert.InDelta(t, 3100, got["price"], 1e-9)
	assert.Equal(t, "live_quote", got["source"])

	rec = get("?manual=1800&at=2025-01-01T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", decodeMap(t, rec)["source"])

	assert.Equal(t, http.StatusBadRequest, get("?manual=-3").Code)
	assert.Equal(t, http.StatusBadRequest, get("?manual=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get("?at=nope").Code)
}

func TestGetPrice_OracleDown(t *testing.T) {
	e := newEnv(t, stubOracle{err: domain.ErrOracleUnavailable})

	rec := httptest.NewRecorder()
	e.price.GetPrice(rec, httptest.NewRequest(http.MethodGet, "/api/price", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, handler.MsgOracleUnavailable, decodeMap(t, rec)["error"])
}

type stubPredictor struct {
	p   domain.Prediction
	err error
}

func (s stubPredictor) Predict(context.Context) (domain.Prediction, error) { return s.p, s.err }

func TestPredict(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	rec := httptest.NewRecorder()
	handler.NewPredictionHandler(stubPredictor{p: domain.Prediction{Prediction: "negative"}}, logger).
		Predict(rec, httptest.NewRequest(http.MethodPost, "/api/prediction", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction":"negative","tokenToBuy":null}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.NewPredictionHandler(stubPredictor{err: errors.New("model offline")}, logger).
		Predict(rec, httptest.NewRequest(http.MethodPost, "/api/prediction", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to get prediction.","error":"model offline"}`, rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewHealthHandler(slog.New(slog.DiscardHandler), "memory").
		HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeMap(t, rec)
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "memory", got["storage"])
}
