package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sitecms/pkg/config"
	"sitecms/pkg/content"
	"sitecms/pkg/services"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sitecms",
	Short: "Structured content editor for multilingual sites",
	Long: `sitecms edits page content stored as nested JSON, YAML or TOML trees,
one tree per section and locale, through an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Init()

		cfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(config.LogLevel)
		if err != nil {
			return fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured content store.
func openStore(ctx context.Context) (services.Store, error) {
	store, err := services.OpenStore(ctx, config.StoreDriver, config.StoreDSN)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", zap.String("driver", config.StoreDriver))
	return store, nil
}

// locales returns the configured locales in canonical form, preferring
// those of the CMS config file.
func locales(fromCMS []string) ([]content.Locale, error) {
	raw := config.Locales
	if len(fromCMS) > 0 {
		raw = fromCMS
	}
	out := make([]content.Locale, 0, len(raw))
	seen := map[content.Locale]bool{}
	for _, s := range raw {
		l, err := content.ParseLocale(s)
		if err != nil {
			return nil, err
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}
