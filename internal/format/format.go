// Package format renders derived position metrics for humans.
// Every function is pure; callers pass the reference instant explicitly.
package format

import (
	"math"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	hoursPerDay   = 24
	daysPerMonth  = 30.44
	monthsPerYear = 12

	// Unavailable se muestra cuando una duración no tiene sentido (cierre anterior a la apertura).
	Unavailable = "-"
	// InvalidDate se muestra para instantes vacíos.
	InvalidDate = "Invalid Date"
)

// Duration buckets a span in hours into h, d, mo or y. Each threshold is
// checked on the converted unit: <24h, <30d, <12mo, <10y.
func Duration(hours float64) string {
	if hours < hoursPerDay {
		return roundHalfUp(hours) + "h"
	}
	days := hours / hoursPerDay
	if days < 30 {
		return roundHalfUp(days) + "d"
	}
	months := days / daysPerMonth
	if months < monthsPerYear {
		return roundHalfUp(months) + "mo"
	}
	years := months / monthsPerYear
	if years < 10 {
		return decimal.NewFromFloat(years).StringFixed(1) + "y"
	}
	return roundHalfUp(years) + "y"
}

// Percentage renders two decimals with a "+" only for strictly positive values.
func Percentage(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if v > 0 {
		return "+" + s + "%"
	}
	return s + "%"
}

// Currency renders whole US dollars with thousands separators: "$2,200", "-$150".
func Currency(v float64) string {
	n := decimal.NewFromFloat(v).Round(0).IntPart()
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// HeldHours is the time a position has been held at now: up to its close
// when CLOSED. ok is false when the end precedes the open instant.
func HeldHours(p domain.Position, now time.Time) (hours float64, ok bool) {
	end := now
	if p.Closing != nil {
		end = p.Closing.ClosedAt
	}
	if p.OpenedAt.IsZero() || end.IsZero() {
		return 0, false
	}
	h := end.Sub(p.OpenedAt).Hours()
	if h < 0 {
		return 0, false
	}
	return h, true
}

// Held is HeldHours rendered with Duration, or Unavailable.
func Held(p domain.Position, now time.Time) string {
	h, ok := HeldHours(p, now)
	if !ok {
		return Unavailable
	}
	return Duration(h)
}

// DateTime renders t in UTC as "Jan 2, 03:04 PM".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.UTC().Format("Jan 2, 03:04 PM")
}

// Date renders t in UTC as "Jan 2, 2006".
func Date(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.UTC().Format("Jan 2, 2006")
}

// JS Math.round: halves go up, also for negatives.
func roundHalfUp(v float64) string {
	return decimal.NewFromFloat(math.Floor(v + 0.5)).String()
}
