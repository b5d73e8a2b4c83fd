package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legaldesk/legaldesk/internal/config"
)

var (
	dumpJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration after env overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg
			if c.DB.Password != "" {
				c.DB.Password = "********"
			}

			dump := config.DumpConfig
			if dumpJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(&c)
			if err != nil {
				return err //nolint:wrapcheck
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)

			return err //nolint:wrapcheck
		},
	}
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "print JSON instead of TOML")
	rootCmd.AddCommand(configCmd)
}
