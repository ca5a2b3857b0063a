package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var conservationSinkPath string

var conservationCmd = &cobra.Command{
	Use:   "conservation-check",
	Short: "Replay the ledger sink and assert the conservation invariant",
	Long: `Replay the durable ledger sink into a fresh ledger and run
AssertConservation (spec §3 invariant 1, §4.B). Exits non-zero if the
invariant does not hold — a conservation violation is fatal by contract.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if conservationSinkPath == "" {
			return fmt.Errorf("--sink is required")
		}
		l, err := replayLedger(context.Background(), conservationSinkPath)
		if err != nil {
			return err
		}
		if err := l.AssertConservation(); err != nil {
			return fmt.Errorf("conservation violated: %w", err)
		}
		fmt.Printf("conservation holds: circulation = %d mCC\n", l.TotalCirculation())
		return nil
	},
}

func init() {
	conservationCmd.Flags().StringVar(&conservationSinkPath, "sink", "", "path to the durable pebble ledger sink")
	rootCmd.AddCommand(conservationCmd)
}
