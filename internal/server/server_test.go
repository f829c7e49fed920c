package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/adapters/coingecko"
	"github.com/alejandrodnm/cbctracker/internal/adapters/storage"
	"github.com/alejandrodnm/cbctracker/internal/application/positions"
	"github.com/alejandrodnm/cbctracker/internal/application/prediction"
	"github.com/alejandrodnm/cbctracker/internal/application/pricing"
	"github.com/alejandrodnm/cbctracker/internal/server"
	"github.com/alejandrodnm/cbctracker/internal/server/handler"
	"github.com/alejandrodnm/cbctracker/internal/server/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the whole stack against a fake CoinGecko and an
// in-memory SQLite book.
func newTestServer(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/simple/price":
			w.Write([]byte(`{"ethereum":{"usd":2500}}`))
		case strings.HasPrefix(r.URL.Path, "/coins/ethereum/history"):
			w.Write([]byte(`{"market_data":{"current_price":{"usd":1900}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	kv, err := storage.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	hub := ws.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	client := coingecko.NewClient(coingecko.Config{BaseURL: upstream.URL, RatePerSec: 1000})
	oracle := pricing.NewOracle(client, pricing.DefaultAsset)
	engine := positions.New(storage.NewPositionStore(kv, "", ""), oracle, positions.WithPublisher(hub))

	srv := server.NewServer(server.Config{Addr: ":0", APIKey: apiKey}, server.Handlers{
		Health:     handler.NewHealthHandler(logger, "sqlite"),
		Positions:  handler.NewPositionHandler(engine, logger),
		Price:      handler.NewPriceHandler(engine, logger),
		Prediction: handler.NewPredictionHandler(prediction.NewRandom(0), logger),
	}, hub, logger)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_PositionLifecycle(t *testing.T) {
	h := newTestServer(t, "")

	rec := do(t, h, http.MethodPost, "/api/positions", `{"action":"open","side":"BUY","priceUsd":2000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var opened map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	id := opened["id"].(string)

	rec = do(t, h, http.MethodPost, "/api/positions/"+id+"/simulate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sim map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sim))
	assert.Equal(t, "live_quote", sim["priceSource"])
	assert.InDelta(t, 25, sim["profitLossPercent"], 1e-9)

	closedAt := time.Now().UTC().Format(time.RFC3339)
	rec = do(t, h, http.MethodPost, "/api/positions",
		`{"action":"close","id":"`+id+`","closePriceUsd":2200,"closedAt":"`+closedAt+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "CLOSED", list[0]["status"])
	assert.InDelta(t, 200, list[0]["profitLoss"], 1e-9)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/positions/"+id+"/simulate", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/positions/"+id, "").Code)
}

func TestServer_HistoricalPrice(t *testing.T) {
	h := newTestServer(t, "")

	at := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	rec := do(t, h, http.MethodGet, "/api/price?at="+at, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sample map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sample))
	assert.Equal(t, "historical_quote", sample["source"])
	assert.InDelta(t, 1900, sample["price"], 1e-9)
}

func TestServer_Prediction(t *testing.T) {
	h := newTestServer(t, "")

	rec := do(t, h, http.MethodPost, "/api/prediction", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, []any{"positive", "negative"}, got["prediction"])
}

func TestServer_APIKey(t *testing.T) {
	h := newTestServer(t, "s3cret")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/positions", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, "")
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/api/positions", "{}").Code)
}
