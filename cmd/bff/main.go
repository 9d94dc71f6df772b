package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bff",
		Short:         "Backend-for-frontend gateway for the mobile and web clients",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file (defaults to $BFF_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "Client profile: mobile or web (defaults to $BFF_PROFILE)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	return rootCmd
}
