package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioduds/askee/internal/crypto"
)

var balanceSinkPath string

var balanceCmd = &cobra.Command{
	Use:   "balance <user_id>",
	Short: "Print a user's account projection",
	Long: `Replay the durable ledger sink and print the account projection
for the given user id (spec §3 "Account projection"): total, lifetime
earned, and lifetime redeemed, all in milli-credits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if balanceSinkPath == "" {
			return fmt.Errorf("--sink is required")
		}
		ctx := context.Background()
		l, err := replayLedger(ctx, balanceSinkPath)
		if err != nil {
			return err
		}

		userHash := crypto.HashUserID(args[0])
		proj := l.Balance(userHash)

		fmt.Printf("user_hash:            %s\n", userHash.String())
		fmt.Printf("total_mCC:            %d\n", proj.TotalMCC)
		fmt.Printf("earned_lifetime_mCC:  %d\n", proj.EarnedLifetimeMCC)
		fmt.Printf("redeemed_lifetime_mCC: %d\n", proj.RedeemedLifetime)
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceSinkPath, "sink", "", "path to the durable pebble ledger sink")
	rootCmd.AddCommand(balanceCmd)
}
