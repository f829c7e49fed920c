package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", Invalid("side must be BUY or SELL, got %q", s)
}

// PositionStatus is OPEN until the position is closed, then CLOSED forever.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Closing groups every field that only exists on a closed position.
// A position is closed iff its Closing is non-nil.
type Closing struct {
	ClosedAt          time.Time
	ClosePriceUSD     float64
	ProfitLoss        float64
	ProfitLossPercent float64
}

// Position is a tracked trade.
type Position struct {
	ID       string
	Side     Side
	PriceUSD float64
	Amount   *float64 // optional size
	OpenedAt time.Time
	Closing  *Closing
}

// OpenInput carries the parameters of a new position.
type OpenInput struct {
	Side     Side
	PriceUSD float64
	Amount   *float64
	OpenedAt *time.Time // defaults to now
}

// Validate checks the fields the engine relies on.
func (in OpenInput) Validate() error {
	if in.Side != SideBuy && in.Side != SideSell {
		return Invalid("side must be BUY or SELL, got %q", in.Side)
	}
	if !(in.PriceUSD > 0) {
		return Invalid("priceUsd must be positive")
	}
	if in.Amount != nil && !(*in.Amount > 0) {
		return Invalid("amount must be positive when present")
	}
	return nil
}

// Status derives the lifecycle state from the presence of closing data.
func (p Position) Status() PositionStatus {
	if p.Closing != nil {
		return StatusClosed
	}
	return StatusOpen
}

// IsOpen reports whether the position can still be closed or simulated.
func (p Position) IsOpen() bool {
	return p.Closing == nil
}

// Close computes the realized P&L at closePrice and returns the closed copy.
// The receiver is left untouched.
func (p Position) Close(closedAt time.Time, closePrice float64) (Position, error) {
	if !p.IsOpen() {
		return Position{}, ErrAlreadyClosed
	}
	if closedAt.IsZero() {
		return Position{}, Invalid("closedAt is required")
	}
	if !(closePrice > 0) {
		return Position{}, Invalid("closePriceUsd must be positive")
	}
	pl, pct := ProfitLoss(p.Side, p.PriceUSD, closePrice)
	p.Closing = &Closing{
		ClosedAt:          closedAt.UTC(),
		ClosePriceUSD:     closePrice,
		ProfitLoss:        pl,
		ProfitLossPercent: pct,
	}
	return p, nil
}

// PositionPatch lists the mutable parts of a stored position.
// Nil fields are left unchanged.
type PositionPatch struct {
	Amount  *float64
	Closing *Closing
}

// Apply merges the patch into a copy of p.
func (p Position) Apply(patch PositionPatch) Position {
	if patch.Amount != nil {
		v := *patch.Amount
		p.Amount = &v
	}
	if patch.Closing != nil {
		c := *patch.Closing
		p.Closing = &c
	}
	return p
}

// isoLayout matches the millisecond ISO-8601 strings the web client produces.
const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t as a UTC ISO-8601 instant.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseISO parses an ISO-8601 instant with or without fractional seconds.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Invalid("invalid timestamp %q", s)
	}
	return t.UTC(), nil
}

// positionRecord is the flat wire/persisted shape of a Position.
type positionRecord struct {
	ID                string         `json:"id"`
	Side              Side           `json:"side"`
	PriceUSD          float64        `json:"priceUsd"`
	ClosePriceUSD     *float64       `json:"closePriceUsd,omitempty"`
	Amount            *float64       `json:"amount,omitempty"`
	OpenedAt          string         `json:"openedAt"`
	ClosedAt          *string        `json:"closedAt,omitempty"`
	Status            PositionStatus `json:"status"`
	ProfitLoss        *float64       `json:"profitLoss,omitempty"`
	ProfitLossPercent *float64       `json:"profitLossPercent,omitempty"`
}

// MarshalJSON flattens the closing data next to the open fields.
func (p Position) MarshalJSON() ([]byte, error) {
	rec := positionRecord{
		ID:       p.ID,
		Side:     p.Side,
		PriceUSD: p.PriceUSD,
		Amount:   p.Amount,
		OpenedAt: FormatISO(p.OpenedAt),
		Status:   p.Status(),
	}
	if c := p.Closing; c != nil {
		closedAt := FormatISO(c.ClosedAt)
		closePrice, pl, pct := c.ClosePriceUSD, c.ProfitLoss, c.ProfitLossPercent
		rec.ClosedAt = &closedAt
		rec.ClosePriceUSD = &closePrice
		rec.ProfitLoss = &pl
		rec.ProfitLossPercent = &pct
	}
	return json.Marshal(rec)
}

// UnmarshalJSON rejects records whose status and closing fields disagree.
func (p *Position) UnmarshalJSON(data []byte) error {
	var rec positionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("position: missing id")
	}
	openedAt, err := ParseISO(rec.OpenedAt)
	if err != nil {
		return fmt.Errorf("position %s: openedAt: %w", rec.ID, err)
	}

	out := Position{
		ID:       rec.ID,
		Side:     rec.Side,
		PriceUSD: rec.PriceUSD,
		Amount:   rec.Amount,
		OpenedAt: openedAt,
	}

	switch rec.Status {
	case StatusOpen:
		if rec.ClosedAt != nil || rec.ClosePriceUSD != nil {
			return fmt.Errorf("position %s: open position carries close fields", rec.ID)
		}
	case StatusClosed:
		if rec.ClosedAt == nil || rec.ClosePriceUSD == nil || rec.ProfitLoss == nil || rec.ProfitLossPercent == nil {
			return fmt.Errorf("position %s: closed position missing close fields", rec.ID)
		}
		closedAt, err := ParseISO(*rec.ClosedAt)
		if err != nil {
			return fmt.Errorf("position %s: closedAt: %w", rec.ID, err)
		}
		out.Closing = &Closing{
			ClosedAt:          closedAt,
			ClosePriceUSD:     *rec.ClosePriceUSD,
			ProfitLoss:        *rec.ProfitLoss,
			ProfitLossPercent: *rec.ProfitLossPercent,
		}
	default:
		return fmt.Errorf("position %s: unknown status %q", rec.ID, rec.Status)
	}

	*p = out
	return nil
}
