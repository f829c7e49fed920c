package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/format"
	"github.com/alejandrodnm/cbctracker/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests, con reloj fijo.
func NewConsoleWriter(w io.Writer, now func() time.Time) *Console {
	if now == nil {
		now = time.Now
	}
	return &Console{out: w, now: now}
}

// Positions imprime el libro completo con P&L realizado y tiempo en posición.
func (c *Console) Positions(_ context.Context, positions []domain.Position) error {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "No positions yet. Open one with `tracker open`.")
		return nil
	}

	now := c.now()
	open := 0
	var realized float64

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Side", "Status", "Opened", "Open $", "Close $", "P&L", "P&L %", "Held")
	for _, p := range positions {
		closePrice, pl, pct := "-", "-", "-"
		if p.Closing != nil {
			closePrice = format.Currency(p.Closing.ClosePriceUSD)
			pl = format.Currency(p.Closing.ProfitLoss)
			pct = format.Percentage(p.Closing.ProfitLossPercent)
			realized += p.Closing.ProfitLoss
		} else {
			open++
		}
		table.Append(
			shortID(p.ID),
			string(p.Side),
			string(p.Status()),
			format.DateTime(p.OpenedAt),
			format.Currency(p.PriceUSD),
			closePrice,
			pl,
			pct,
			format.Held(p, now),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  %d positions | %d open | realized P&L %s\n",
		len(positions), open, format.Currency(realized))
	return nil
}

// Position imprime una sola posición (resultado de open/close).
func (c *Console) Position(_ context.Context, p domain.Position) error {
	fmt.Fprintf(c.out, "%s %s %s @ %s on %s\n",
		p.ID, p.Status(), p.Side, format.Currency(p.PriceUSD), format.DateTime(p.OpenedAt))
	if p.Amount != nil {
		fmt.Fprintf(c.out, "  amount:  %g\n", *p.Amount)
	}
	if p.Closing != nil {
		fmt.Fprintf(c.out, "  closed:  %s @ %s\n",
			format.DateTime(p.Closing.ClosedAt), format.Currency(p.Closing.ClosePriceUSD))
		fmt.Fprintf(c.out, "  P&L:     %s (%s)\n",
			format.Currency(p.Closing.ProfitLoss), format.Percentage(p.Closing.ProfitLossPercent))
	}
	return nil
}

// Simulation imprime el cierre hipotético de una posición abierta.
func (c *Console) Simulation(_ context.Context, sim domain.Simulation) error {
	p := sim.Position
	duration := format.Unavailable
	if sim.DurationHours >= 0 {
		duration = format.Duration(sim.DurationHours)
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Position", fmt.Sprintf("%s %s @ %s", shortID(p.ID), p.Side, format.Currency(p.PriceUSD)))
	table.Append("Opened", format.DateTime(p.OpenedAt))
	table.Append("Simulated at", format.DateTime(sim.At))
	table.Append("Price", fmt.Sprintf("%s (%s)", format.Currency(sim.Price), sim.PriceSource))
	table.Append("Variation", format.Percentage(sim.VariationPercent))
	table.Append("P&L", format.Currency(sim.ProfitLoss))
	table.Append("P&L %", format.Percentage(sim.ProfitLossPercent))
	table.Append("Duration", duration)
	table.Render()
	return nil
}

// Price imprime una muestra del oráculo.
func (c *Console) Price(_ context.Context, s domain.PriceSample) error {
	fmt.Fprintf(c.out, "ETH %s (%s, fetched %s)\n",
		format.Currency(s.Price), s.Source, format.DateTime(s.FetchedAt))
	return nil
}

// Prediction imprime la recomendación.
func (c *Console) Prediction(_ context.Context, p domain.Prediction) error {
	if p.TokenToBuy == nil {
		fmt.Fprintf(c.out, "prediction: %s, stay out\n", p.Prediction)
		return nil
	}
	fmt.Fprintf(c.out, "prediction: %s, buy %s\n", p.Prediction, *p.TokenToBuy)
	return nil
}

// --- helpers ---

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var _ ports.Notifier = (*Console)(nil)
