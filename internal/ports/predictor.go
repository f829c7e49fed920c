package ports

import (
	"context"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// Predictor produces a buy/hold recommendation.
type Predictor interface {
	Predict(ctx context.Context) (domain.Prediction, error)
}
