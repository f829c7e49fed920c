package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// PriceProvider is an upstream USD price source.
type PriceProvider interface {
	// CurrentPrice returns the latest USD price of asset.
	CurrentPrice(ctx context.Context, asset string) (float64, error)

	// HistoricalPrice returns the USD price of asset for the UTC calendar day containing day.
	HistoricalPrice(ctx context.Context, asset string, day time.Time) (float64, error)
}

// PriceOracle picks a price source for an instant, honouring manual overrides.
type PriceOracle interface {
	// FetchPrice fails only with domain.ErrOracleUnavailable.
	FetchPrice(ctx context.Context, at *time.Time, manual float64) (domain.PriceSample, error)
}
