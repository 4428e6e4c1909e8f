package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront backend: catalog, cart, wishlist, checkout and admin API",
	Long: `storefront serves the shopper and admin HTTP API.

Configuration is read from the environment (see internal/config). Run "storefront serve"
to start the server or "storefront migrate up" to prepare the database.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, hashPasswordCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
