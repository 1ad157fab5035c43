package cmd

import (
	"fmt"

	"github.com/imanix/b2b-storefront/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	syncTag string
	syncOut string
)

var syncProductsCmd = &cobra.Command{
	Use:   "sync-products",
	Short: "Export products with a tag to a JSON snapshot",
	Long: `Pages through every shop product carrying --tag and writes
{syncedAt, tag, count, products} to --out. The file is replaced atomically.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		source, err := openProducts(cmd.Context())
		if err != nil {
			return err
		}

		snap, err := catalog.NewSyncer(source).Sync(cmd.Context(), syncTag, syncOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products tagged %q to %s\n", snap.Count, snap.Tag, syncOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncProductsCmd)
	syncProductsCmd.Flags().StringVar(&syncTag, "tag", "b2b", "Product tag to export")
	syncProductsCmd.Flags().StringVar(&syncOut, "out", "products.json", "Snapshot file to write")
}
