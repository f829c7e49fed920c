package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	// Plan público: ~30 req/min. Nos quedamos en 1 req cada 2s con ráfaga de 5.
	defaultRatePerSec = 0.5
	defaultBurst      = 5
	defaultTimeout    = 10 * time.Second

	currentTTL    = 60 * time.Second
	historicalTTL = time.Hour
)

// Config configura el Client. Los campos vacíos toman los defaults de producción.
type Config struct {
	BaseURL    string
	APIKey     string // demo key, enviada como x-cg-demo-api-key
	Timeout    time.Duration
	RatePerSec float64
}

// Client es el HTTP client de CoinGecko con rate limiting y caché de respuestas.
// No reintenta: cualquier fallo vuelve al llamador.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price   float64
	expires time.Time
}

// NewClient crea un Client con la configuración dada.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), defaultBurst),
		now:     time.Now,
		cache:   make(map[string]cachedPrice),
	}
}

// get hace un GET con rate limiting y decodifica el JSON en out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) cached(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok || c.now().After(e.expires) {
		return 0, false
	}
	return e.price, true
}

func (c *Client) store(key string, price float64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedPrice{price: price, expires: c.now().Add(ttl)}
}
