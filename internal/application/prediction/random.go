// Package prediction holds the stub behind POST /api/prediction.
// The real model is an external black box; Random only reproduces its shape.
package prediction

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/ports"
)

const (
	DefaultDelay = 1500 * time.Millisecond

	LabelPositive = "positive"
	LabelNegative = "negative"
	TokenETH      = "ETH"
)

// Random picks "positive" (buy ETH) or "negative" (no token) after a delay.
type Random struct {
	delay time.Duration
	pick  func() bool
}

type Option func(*Random)

// WithPicker replaces the coin flip; true means positive.
func WithPicker(pick func() bool) Option {
	return func(r *Random) { r.pick = pick }
}

// NewRandom creates the stub. A negative delay is treated as zero.
func NewRandom(delay time.Duration, opts ...Option) *Random {
	if delay < 0 {
		delay = 0
	}
	r := &Random{
		delay: delay,
		pick:  func() bool { return rand.IntN(2) == 0 },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Random) Predict(ctx context.Context) (domain.Prediction, error) {
	if r.delay > 0 {
		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.Prediction{}, fmt.Errorf("prediction.Predict: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if r.pick() {
		token := TokenETH
		return domain.Prediction{Prediction: LabelPositive, TokenToBuy: &token}, nil
	}
	return domain.Prediction{Prediction: LabelNegative}, nil
}

var _ ports.Predictor = (*Random)(nil)
