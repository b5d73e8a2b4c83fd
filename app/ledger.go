package app

import (
	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/legaldesk/legaldesk/internal/daemon"
	"github.com/legaldesk/legaldesk/internal/ledger"
)

// ErrInconsistentLedger is returned by reconcile when a report is not clean,
// so scripts can rely on the exit status.
var ErrInconsistentLedger = errors.New("ledger is inconsistent")

var (
	lawyerID    uint64
	allLawyers  bool
	failOnDirty bool

	ledgerCmd = &cobra.Command{
		Use:   "ledger",
		Short: "Reconcile and repair earnings summaries",
	}

	ledgerReconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored earnings summaries with the transaction log",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if allLawyers == (lawyerID != 0) {
				return errors.New("use exactly one of --lawyer or --all")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				var reports []ledger.Report

				if allLawyers {
					all, err := s.Ledger.ReconcileAll(cmd.Context())
					if err != nil {
						return err //nolint:wrapcheck
					}

					reports = all
				} else {
					r, err := s.Ledger.Reconcile(cmd.Context(), lawyerID)
					if err != nil {
						return err //nolint:wrapcheck
					}

					reports = []ledger.Report{r}
				}

				dirty := make([]ledger.Report, 0, len(reports))
				for _, r := range reports {
					if !r.Clean() {
						dirty = append(dirty, r)
					}
				}

				if err := printJSON(cmd.OutOrStdout(), dirty); err != nil {
					return err
				}

				if failOnDirty && len(dirty) > 0 {
					return ErrInconsistentLedger
				}

				return nil
			})
		},
	}

	ledgerRepairCmd = &cobra.Command{
		Use:   "repair",
		Short: "Replace a lawyer's earnings summary with the recomputed one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				before, err := s.Ledger.Repair(cmd.Context(), lawyerID)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return printJSON(cmd.OutOrStdout(), before)
			})
		},
	}
)

func init() { //nolint: gochecknoinits
	ledgerReconcileCmd.Flags().Uint64Var(&lawyerID, "lawyer", 0, "lawyer id")
	ledgerReconcileCmd.Flags().BoolVar(&allLawyers, "all", false, "reconcile every lawyer")
	ledgerReconcileCmd.Flags().BoolVar(&failOnDirty, "fail", false, "exit non-zero when a summary is inconsistent")

	ledgerRepairCmd.Flags().Uint64Var(&lawyerID, "lawyer", 0, "lawyer id")
	_ = ledgerRepairCmd.MarkFlagRequired("lawyer")

	ledgerCmd.AddCommand(ledgerReconcileCmd, ledgerRepairCmd)
	rootCmd.AddCommand(ledgerCmd)
}
