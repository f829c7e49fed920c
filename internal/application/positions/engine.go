package positions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/ports"
	"github.com/google/uuid"
)

// Engine runs the position lifecycle: OPEN --close--> CLOSED.
// It holds no positions itself; every call goes through the store.
type Engine struct {
	store     ports.PositionStore
	oracle    ports.PriceOracle
	publisher ports.Publisher
	now       func() time.Time
	newID     func() string
}

// Option configura el Engine.
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithPublisher receives an event after every successful mutation.
func WithPublisher(p ports.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// New creates an Engine. oracle may be nil if SimulateAt and Quote are unused.
func New(store ports.PositionStore, oracle ports.PriceOracle, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		oracle:    oracle,
		publisher: nopPublisher{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List returns every position, newest first.
func (e *Engine) List(ctx context.Context) ([]domain.Position, error) {
	positions, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions.List: %w", err)
	}
	return positions, nil
}

// Open creates and persists a new OPEN position.
func (e *Engine) Open(ctx context.Context, in domain.OpenInput) (domain.Position, error) {
	if err := in.Validate(); err != nil {
		return domain.Position{}, fmt.Errorf("positions.Open: %w", err)
	}

	openedAt := e.now().UTC()
	if in.OpenedAt != nil {
		openedAt = in.OpenedAt.UTC()
	}
	var amount *float64
	if in.Amount != nil {
		v := *in.Amount
		amount = &v
	}

	p := domain.Position{
		ID:       e.newID(),
		Side:     in.Side,
		PriceUSD: in.PriceUSD,
		Amount:   amount,
		OpenedAt: openedAt,
	}
	if err := e.store.Add(ctx, p); err != nil {
		return domain.Position{}, fmt.Errorf("positions.Open: %w", err)
	}

	slog.Info("position opened", "id", p.ID, "side", p.Side, "price_usd", p.PriceUSD)
	e.publisher.Publish(ctx, domain.PositionEvent{Type: domain.EventOpened, Position: p})
	return p, nil
}

// Close realizes the P&L of an OPEN position at closePrice. The status check
// and the write happen under the store's update, so a second close of the
// same id sees CLOSED and fails with domain.ErrNotFound.
func (e *Engine) Close(ctx context.Context, id string, closedAt time.Time, closePrice float64) (domain.Position, error) {
	closed, err := e.store.UpdateFunc(ctx, id, func(p domain.Position) (domain.PositionPatch, error) {
		c, err := p.Close(closedAt, closePrice)
		if err != nil {
			return domain.PositionPatch{}, err
		}
		return domain.PositionPatch{Closing: c.Closing}, nil
	})
	if err != nil {
		return domain.Position{}, fmt.Errorf("positions.Close %s: %w", id, err)
	}

	slog.Info("position closed",
		"id", closed.ID,
		"close_price_usd", closed.Closing.ClosePriceUSD,
		"profit_loss", closed.Closing.ProfitLoss,
		"profit_loss_pct", closed.Closing.ProfitLossPercent,
	)
	e.publisher.Publish(ctx, domain.PositionEvent{Type: domain.EventClosed, Position: closed})
	return closed, nil
}

// Simulate evaluates an OPEN position at the sampled price without writing anything.
func (e *Engine) Simulate(ctx context.Context, id string, at time.Time, sample domain.PriceSample) (domain.Simulation, error) {
	p, err := e.openPosition(ctx, id)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("positions.Simulate: %w", err)
	}
	sim, err := domain.Simulate(p, at, sample)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("positions.Simulate %s: %w", id, err)
	}
	return sim, nil
}

// SimulateAt prices the instant through the oracle (or uses manual when > 0)
// and then simulates. The position is checked before any price lookup.
func (e *Engine) SimulateAt(ctx context.Context, id string, at time.Time, manual float64) (domain.Simulation, error) {
	p, err := e.openPosition(ctx, id)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("positions.SimulateAt: %w", err)
	}
	sample, err := e.Quote(ctx, &at, manual)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("positions.SimulateAt %s: %w", id, err)
	}
	sim, err := domain.Simulate(p, at, sample)
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("positions.SimulateAt %s: %w", id, err)
	}
	return sim, nil
}

// Quote fetches a reference price for at.
func (e *Engine) Quote(ctx context.Context, at *time.Time, manual float64) (domain.PriceSample, error) {
	if manual < 0 {
		return domain.PriceSample{}, domain.Invalid("manual price must be positive")
	}
	if e.oracle == nil {
		if manual > 0 {
			return domain.PriceSample{Price: manual, FetchedAt: e.now().UTC(), Source: domain.SourceManual}, nil
		}
		return domain.PriceSample{}, domain.ErrOracleUnavailable
	}
	return e.oracle.FetchPrice(ctx, at, manual)
}

// Delete removes a position whatever its status.
func (e *Engine) Delete(ctx context.Context, id string) error {
	p, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("positions.Delete: %w", err)
	}
	ok, err := e.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("positions.Delete %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("positions.Delete %s: %w", id, domain.ErrNotFound)
	}

	slog.Info("position deleted", "id", id)
	e.publisher.Publish(ctx, domain.PositionEvent{Type: domain.EventDeleted, Position: p})
	return nil
}

func (e *Engine) openPosition(ctx context.Context, id string) (domain.Position, error) {
	p, err := e.store.Get(ctx, id)
	if err != nil {
		return domain.Position{}, err
	}
	if !p.IsOpen() {
		return domain.Position{}, fmt.Errorf("%s: %w", id, domain.ErrAlreadyClosed)
	}
	return p, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.PositionEvent) {}
