package ports

import (
	"context"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// Notifier presenta el libro de posiciones y los resultados al usuario.
type Notifier interface {
	// Positions muestra el libro, las más recientes primero.
	// En la implementación de consola, imprime una tabla formateada.
	Positions(ctx context.Context, positions []domain.Position) error
	Position(ctx context.Context, p domain.Position) error
	Simulation(ctx context.Context, sim domain.Simulation) error
	Price(ctx context.Context, sample domain.PriceSample) error
	Prediction(ctx context.Context, p domain.Prediction) error
}
