package domain

import "time"

// PriceSource tells where a PriceSample came from.
type PriceSource string

const (
	SourceLive       PriceSource = "live_quote"
	SourceHistorical PriceSource = "historical_quote"
	SourceManual     PriceSource = "manual"
)

// PriceSample is a USD reference price. FetchedAt is when the lookup was
// issued, not the period the price describes.
type PriceSample struct {
	Price     float64     `json:"price"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Source    PriceSource `json:"source"`
}
