package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/cbctracker/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the config they resolve to.
type rootOptions struct {
	configPath string
	verbose    bool
	logFormat  string
	backend    string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Position tracker for the CBC mini app",
		Long: `tracker owns the BUY/SELL position book of the CBC Farcaster mini app.

It serves the JSON Position API (open, close, simulate, delete), the ETH price
oracle backed by CoinGecko and the prediction stub, and can run the same
operations from the command line against the configured storage backend.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				slog.Error("failed to load config", "err", err, "path", opts.configPath)
				return err
			}
			if opts.verbose {
				cfg.Log.Level = "debug"
			}
			if opts.logFormat != "" {
				cfg.Log.Format = opts.logFormat
			}
			if opts.backend != "" {
				cfg.Storage.Backend = opts.backend
			}
			setupLogger(cmd.ErrOrStderr(), cfg.Log)
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config/config.yaml", "path to config file (empty: env and defaults only)")
	flags.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")
	flags.StringVar(&opts.logFormat, "format", "", "log format: text|json (overrides config)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: sqlite|redis|memory (overrides config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newOpenCmd(opts),
		newCloseCmd(opts),
		newSimulateCmd(opts),
		newDeleteCmd(opts),
		newPriceCmd(opts),
		newPredictCmd(opts),
	)
	return cmd
}

// setupLogger instala el logger por defecto. Los logs van a stderr para no
// mezclarse con las tablas de stdout.
func setupLogger(w io.Writer, cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
