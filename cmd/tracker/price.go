package main

import (
	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/spf13/cobra"
)

func newPriceCmd(opts *rootOptions) *cobra.Command {
	var (
		at     string
		manual float64
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Fetch the ETH reference price (live, or historical when --at is older than the threshold)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			instant, err := parseInstant(at)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("manual") && !(manual > 0) {
				return domain.Invalid("--manual must be positive")
			}

			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			sample, err := a.engine.Quote(ctx, instant, manual)
			if err != nil {
				return explain(err)
			}
			return a.notifier.Price(ctx, sample)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "instant to price, ISO-8601 (default: now)")
	cmd.Flags().Float64Var(&manual, "manual", 0, "manual override in USD")
	return cmd
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Ask the prediction stub for a buy/sell recommendation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.predictor.Predict(ctx)
			if err != nil {
				return err
			}
			return a.notifier.Prediction(ctx, p)
		},
	}
}
