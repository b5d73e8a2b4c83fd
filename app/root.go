// Package app implements the main application commands.
package app

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/daemon"
	"github.com/legaldesk/legaldesk/internal/logger"
)

var (
	configPath string // Path to the configuration directory holding main.toml

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "legaldesk",
	Short: "LegalDesk authorization engine and earnings ledger",
	Long: `LegalDesk serves the marketplace's authorization decisions and keeps
every lawyer's earnings summary consistent with the transaction log.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		if cfg, err = config.ReadConfig(configPath); err != nil {
			return err //nolint:wrapcheck
		}

		if devMode {
			cfg.DevMode = true
		}

		return errors.Wrap(logger.Init(cfg.Log), "failed to init logger")
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute() //nolint:wrapcheck
}

// withServices opens the store for a one-shot command and closes it afterwards.
func withServices(fn func(s *daemon.Services) error) error {
	services, err := daemon.Bootstrap(&cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer func() { _ = services.Close() }()

	return fn(services)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v) //nolint:wrapcheck
}
