package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/di"
	"github.com/bioduds/askee/internal/policy"
)

var (
	serveSinkPath      string
	serveTokenStoreDir string
	serveIssuerPriv    string
	serveCleanupEvery  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Construct a Core and block, running background cleanup",
	Long: `Wire a Core (ledger, discovery, consent, gate) from policy and an
issuer keypair, then block running the consent manager's periodic cleanup
sweep until interrupted. This is not the out-of-scope HTTP/WebSocket
server — no network listener is opened (spec §1).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}

		var pub crypto.PublicKey
		var priv crypto.PrivateKey
		if serveIssuerPriv == "" {
			pub, priv, err = crypto.GenerateKeyPair()
			if err != nil {
				return fmt.Errorf("generating issuer keypair: %w", err)
			}
			fmt.Printf("generated ephemeral issuer key (not persisted): %s\n", hex.EncodeToString(pub))
		} else {
			decoded, err := hex.DecodeString(serveIssuerPriv)
			if err != nil {
				return fmt.Errorf("decoding --issuer-priv: %w", err)
			}
			sk := crypto.NewSecretKeyWithCopy(decoded)
			crypto.SecureErase(decoded)
			priv = crypto.PrivateKey(sk.Copy())
			pub = priv.Public().(crypto.PublicKey)
			sk.Close()
			if !sk.IsClosed() {
				return fmt.Errorf("internal: issuer secret key failed to close")
			}
		}

		container := di.New()
		provider := di.NewProvider(container, p, pub, priv, serveSinkPath, serveTokenStoreDir)
		if err := provider.RegisterAll(); err != nil {
			return fmt.Errorf("registering services: %w", err)
		}

		c, err := provider.GetCore()
		if err != nil {
			return fmt.Errorf("constructing core: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go c.RunCleanup(ctx, serveCleanupEvery)

		slog.Info("askeed.serve", "network_id", p.NetworkID, "sink", serveSinkPath != "")
		<-ctx.Done()
		slog.Info("askeed.shutdown")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSinkPath, "sink", "", "path to a durable pebble ledger sink (empty keeps the ledger in-memory only)")
	serveCmd.Flags().StringVar(&serveTokenStoreDir, "token-store-dir", "", "directory for a JSON-file-backed consent token store (empty keeps tokens in memory only)")
	serveCmd.Flags().StringVar(&serveIssuerPriv, "issuer-priv", "", "hex-encoded Ed25519 issuer private key (empty generates an ephemeral one)")
	serveCmd.Flags().DurationVar(&serveCleanupEvery, "cleanup-interval", 10*time.Minute, "interval between consent-token cleanup sweeps")
	rootCmd.AddCommand(serveCmd)
}
