package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioduds/askee/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an Ed25519 issuer keypair",
	Long: `Generate a fresh Ed25519 keypair for use as the kernel's issuer key,
which signs consent tokens, invitations, and protocol headers (spec §4.A).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := crypto.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generating keypair: %w", err)
		}
		sk := crypto.NewSecretKeyWithCopy(priv)
		defer sk.Close()
		fmt.Printf("public_key:  %s\n", hex.EncodeToString(pub))
		fmt.Printf("private_key: %s (%d bytes)\n", hex.EncodeToString(sk.Copy()), sk.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
