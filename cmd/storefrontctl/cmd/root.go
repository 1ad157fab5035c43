package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/imanix/b2b-storefront/config"
	"github.com/imanix/b2b-storefront/internal/catalog"
	"github.com/imanix/b2b-storefront/internal/core"
	logicv1 "github.com/imanix/b2b-storefront/internal/logic/v1"
	"github.com/imanix/b2b-storefront/internal/shopify"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "storefrontctl",
	Short: "Maintenance tools for the B2B storefront",
	Long: `Operator commands for the B2B storefront: inspect and patch customer
profiles, and export tagged products from the shop.
Configuration is read from the environment and .env, like the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if cfg == nil {
			cfg = config.Load()
		}
		pkgzerolog.Setup(cfg.Logging.Level)
	},
}

// openProfiles and openProducts are replaced in tests.
var (
	openProfiles = openProfileStore

	openProducts = func(_ context.Context) (catalog.ProductSource, error) {
		return shopify.NewClient(cfg.Shopify)
	}
)

// openProfileStore connects to the real profile database. The in-memory
// fallback the server uses for local runs would make every user command
// report "user not found", so DATABASE_URL is mandatory here.
func openProfileStore(ctx context.Context) (*logicv1.ProfileService, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL is required for user commands")
	}
	stores, err := core.OpenStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	sessions := logicv1.NewSessionStore(stores.Sessions, cfg.Session.MaxAge)
	return logicv1.NewProfileService(stores.Users, sessions, logicv1.NewBcryptVerifier()), stores.Close, nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
