package domain

import "time"

// Simulation is the hypothetical result of closing an open position at a
// given instant and price. It is never persisted.
type Simulation struct {
	Position          Position    `json:"position"`
	At                time.Time   `json:"simulationDatetime"`
	Price             float64     `json:"simulationPrice"`
	VariationPercent  float64     `json:"variationPercent"`
	ProfitLoss        float64     `json:"profitLoss"`
	ProfitLossPercent float64     `json:"profitLossPercent"`
	DurationHours     float64     `json:"durationHours"`
	PriceSource       PriceSource `json:"priceSource"`
	PriceFetchedAt    time.Time   `json:"priceFetchedAt"`
}

// Simulate evaluates p at the sampled price without modifying it.
// DurationHours is negative when at precedes the open instant.
func Simulate(p Position, at time.Time, sample PriceSample) (Simulation, error) {
	if !p.IsOpen() {
		return Simulation{}, ErrAlreadyClosed
	}
	if !(sample.Price > 0) {
		return Simulation{}, Invalid("simulation price must be positive")
	}
	pl, pct := ProfitLoss(p.Side, p.PriceUSD, sample.Price)
	return Simulation{
		Position:          p,
		At:                at.UTC(),
		Price:             sample.Price,
		VariationPercent:  Variation(p.PriceUSD, sample.Price),
		ProfitLoss:        pl,
		ProfitLossPercent: pct,
		DurationHours:     at.Sub(p.OpenedAt).Hours(),
		PriceSource:       sample.Source,
		PriceFetchedAt:    sample.FetchedAt,
	}, nil
}
