package domain_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_Buy(t *testing.T) {
	p := openPosition(domain.SideBuy, 2000)
	fetched := t0.Add(30 * time.Hour)
	sample := domain.PriceSample{Price: 2300, FetchedAt: fetched, Source: domain.SourceLive}

	sim, err := domain.Simulate(p, t0.Add(36*time.Hour), sample)
	require.NoError(t, err)

	assert.InDelta(t, 300, sim.ProfitLoss, 1e-9)
	assert.InDelta(t, 15, sim.ProfitLossPercent, 1e-9)
	assert.InDelta(t, 15, sim.VariationPercent, 1e-9)
	assert.InDelta(t, 36, sim.DurationHours, 1e-9)
	assert.Equal(t, domain.SourceLive, sim.PriceSource)
	assert.Equal(t, fetched, sim.PriceFetchedAt)
	assert.True(t, sim.Position.IsOpen())
}

func TestSimulate_SellVariationKeepsMarketSign(t *testing.T) {
	p := openPosition(domain.SideSell, 2000)

	sim, err := domain.Simulate(p, t0.Add(time.Hour), domain.PriceSample{Price: 2200, Source: domain.SourceManual})
	require.NoError(t, err)

	assert.InDelta(t, -200, sim.ProfitLoss, 1e-9)
	assert.InDelta(t, -10, sim.ProfitLossPercent, 1e-9)
	assert.InDelta(t, 10, sim.VariationPercent, 1e-9)
}

func TestSimulate_NegativeDurationPassesThrough(t *testing.T) {
	sim, err := domain.Simulate(openPosition(domain.SideBuy, 100), t0.Add(-90*time.Minute), domain.PriceSample{Price: 100})
	require.NoError(t, err)
	assert.InDelta(t, -1.5, sim.DurationHours, 1e-9)
}

func TestSimulate_Rejects(t *testing.T) {
	p := openPosition(domain.SideBuy, 100)

	_, err := domain.Simulate(p, t0, domain.PriceSample{Price: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	closed, err := p.Close(t0.Add(time.Hour), 110)
	require.NoError(t, err)
	_, err = domain.Simulate(closed, t0, domain.PriceSample{Price: 120})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
