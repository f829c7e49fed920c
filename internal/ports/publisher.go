package ports

import (
	"context"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// Publisher fans position mutations out to live clients. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event domain.PositionEvent)
}
