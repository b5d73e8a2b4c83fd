package app

import (
	"github.com/spf13/cobra"

	"github.com/legaldesk/legaldesk/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Migrate the database and start the web service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return d.Start() //nolint:wrapcheck
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed the configured roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				return s.Migrate(cmd.Context()) //nolint:wrapcheck
			})
		},
	}
)
