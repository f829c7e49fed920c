package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/ports"
)

const (
	DefaultAsset = "ethereum"

	// Instants older than this are priced from the daily history.
	DefaultHistoricalAfter = time.Hour
)

var errNonPositive = errors.New("provider returned a non-positive price")

// Oracle implements ports.PriceOracle on top of a PriceProvider.
type Oracle struct {
	provider        ports.PriceProvider
	asset           string
	historicalAfter time.Duration
	now             func() time.Time
}

// Option configura el Oracle.
type Option func(*Oracle)

// WithClock sets the wall clock used for routing and fetchedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

// WithHistoricalAfter changes the age at which lookups switch to history.
func WithHistoricalAfter(d time.Duration) Option {
	return func(o *Oracle) {
		if d > 0 {
			o.historicalAfter = d
		}
	}
}

// NewOracle creates an Oracle for asset (DefaultAsset when empty).
func NewOracle(provider ports.PriceProvider, asset string, opts ...Option) *Oracle {
	if asset == "" {
		asset = DefaultAsset
	}
	o := &Oracle{
		provider:        provider,
		asset:           asset,
		historicalAfter: DefaultHistoricalAfter,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchPrice returns a manual sample when manual > 0. Otherwise it prices at
// from history if at is older than the threshold, else from the live quote.
// Every upstream failure collapses into domain.ErrOracleUnavailable so the
// caller can always fall back to manual entry.
func (o *Oracle) FetchPrice(ctx context.Context, at *time.Time, manual float64) (domain.PriceSample, error) {
	fetchedAt := o.now().UTC()

	if manual > 0 {
		return domain.PriceSample{Price: manual, FetchedAt: fetchedAt, Source: domain.SourceManual}, nil
	}

	var (
		price  float64
		source domain.PriceSource
		err    error
	)
	if at != nil && at.Before(fetchedAt.Add(-o.historicalAfter)) {
		source = domain.SourceHistorical
		price, err = o.provider.HistoricalPrice(ctx, o.asset, *at)
	} else {
		source = domain.SourceLive
		price, err = o.provider.CurrentPrice(ctx, o.asset)
	}
	if err == nil && !(price > 0) {
		err = errNonPositive
	}
	if err != nil {
		slog.Warn("price oracle failed, manual entry required",
			"asset", o.asset,
			"source", source,
			"err", err,
		)
		return domain.PriceSample{}, domain.ErrOracleUnavailable
	}

	return domain.PriceSample{Price: price, FetchedAt: fetchedAt, Source: source}, nil
}

var _ ports.PriceOracle = (*Oracle)(nil)
