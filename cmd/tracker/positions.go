package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/spf13/cobra"
)

// futureSkew mirrors the API's tolerance for clocks slightly ahead.
const futureSkew = time.Minute

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every position, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.engine.List(ctx)
			if err != nil {
				return err
			}
			return a.notifier.Positions(ctx, all)
		},
	}
}

func newOpenCmd(opts *rootOptions) *cobra.Command {
	var (
		side   string
		price  float64
		amount float64
		at     string
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position; without --price the oracle prices --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := domain.ParseSide(side)
			if err != nil {
				return err
			}
			openedAt, err := parseInstant(at)
			if err != nil {
				return err
			}
			if openedAt != nil && openedAt.After(time.Now().Add(futureSkew)) {
				return domain.Invalid("--at cannot be in the future")
			}
			if price < 0 {
				return domain.Invalid("--price must be positive")
			}

			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			in := domain.OpenInput{Side: s, PriceUSD: price, OpenedAt: openedAt}
			if cmd.Flags().Changed("amount") {
				in.Amount = &amount
			}
			if price == 0 {
				sample, err := a.engine.Quote(ctx, openedAt, 0)
				if err != nil {
					return explain(err)
				}
				in.PriceUSD = sample.Price
				if err := a.notifier.Price(ctx, sample); err != nil {
					return err
				}
			}

			p, err := a.engine.Open(ctx, in)
			if err != nil {
				return explain(err)
			}
			return a.notifier.Position(ctx, p)
		},
	}

	f := cmd.Flags()
	f.StringVar(&side, "side", "BUY", "BUY or SELL")
	f.Float64Var(&price, "price", 0, "open price in USD (0: ask the oracle)")
	f.Float64Var(&amount, "amount", 0, "position size (optional)")
	f.StringVar(&at, "at", "", "open instant, ISO-8601 (default: now)")
	return cmd
}

func newCloseCmd(opts *rootOptions) *cobra.Command {
	var (
		price float64
		at    string
	)

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an open position and freeze its P&L",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			closedAt := time.Now().UTC()
			if t, err := parseInstant(at); err != nil {
				return err
			} else if t != nil {
				closedAt = *t
			}
			if price < 0 {
				return domain.Invalid("--price must be positive")
			}

			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			if price == 0 {
				sample, err := a.engine.Quote(ctx, &closedAt, 0)
				if err != nil {
					return explain(err)
				}
				price = sample.Price
			}

			p, err := a.engine.Close(ctx, args[0], closedAt, price)
			if err != nil {
				return explain(err)
			}
			return a.notifier.Position(ctx, p)
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "close price in USD (0: ask the oracle)")
	cmd.Flags().StringVar(&at, "at", "", "close instant, ISO-8601 (default: now)")
	return cmd
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		price float64
		at    string
	)

	cmd := &cobra.Command{
		Use:   "simulate <id>",
		Short: "Evaluate a hypothetical close without touching the book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			instant := time.Now().UTC()
			if t, err := parseInstant(at); err != nil {
				return err
			} else if t != nil {
				instant = *t
			}
			if price < 0 {
				return domain.Invalid("--price must be positive")
			}

			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			sim, err := a.engine.SimulateAt(ctx, args[0], instant, price)
			if err != nil {
				return explain(err)
			}
			return a.notifier.Simulation(ctx, sim)
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "hypothetical price in USD (0: ask the oracle)")
	cmd.Flags().StringVar(&at, "at", "", "simulated instant, ISO-8601 (default: now)")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a position, open or closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.Delete(ctx, args[0]); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("position %s not found: %w", args[0], err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
