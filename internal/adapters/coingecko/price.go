package coingecko

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

const (
	simplePricePath = "/simple/price"
	historyPath     = "/coins/%s/history"
	historyDate     = "02-01-2006" // DD-MM-YYYY
)

var errMissingPrice = errors.New("response has no usd price")

// CurrentPrice devuelve el precio USD actual de asset (id de CoinGecko, p.ej. "ethereum").
func (c *Client) CurrentPrice(ctx context.Context, asset string) (float64, error) {
	key := "current:" + asset
	if p, ok := c.cached(key); ok {
		return p, nil
	}

	u := fmt.Sprintf("%s%s?ids=%s&vs_currencies=usd", c.baseURL, simplePricePath, url.QueryEscape(asset))

	var resp simplePriceResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("coingecko.CurrentPrice %s: %w", asset, err)
	}
	entry, ok := resp[asset]
	if !ok || entry.USD == nil || *entry.USD <= 0 {
		return 0, fmt.Errorf("coingecko.CurrentPrice %s: %w", asset, errMissingPrice)
	}

	c.store(key, *entry.USD, currentTTL)
	return *entry.USD, nil
}

// HistoricalPrice devuelve el precio USD de asset para el día UTC que contiene day.
// CoinGecko solo resuelve a nivel de día: la hora se ignora.
func (c *Client) HistoricalPrice(ctx context.Context, asset string, day time.Time) (float64, error) {
	date := day.UTC().Format(historyDate)
	key := "history:" + asset + ":" + date
	if p, ok := c.cached(key); ok {
		return p, nil
	}

	u := fmt.Sprintf("%s"+historyPath+"?date=%s&localization=false",
		c.baseURL, url.PathEscape(asset), date)

	var resp historyResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("coingecko.HistoricalPrice %s %s: %w", asset, date, err)
	}
	if resp.MarketData == nil || resp.MarketData.CurrentPrice == nil ||
		resp.MarketData.CurrentPrice.USD == nil || *resp.MarketData.CurrentPrice.USD <= 0 {
		return 0, fmt.Errorf("coingecko.HistoricalPrice %s %s: %w", asset, date, errMissingPrice)
	}

	price := *resp.MarketData.CurrentPrice.USD
	c.store(key, price, historicalTTL)
	slog.Debug("historical price fetched", "asset", asset, "date", date, "usd", price)
	return price, nil
}
