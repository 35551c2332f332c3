package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "marketplace",
		Short:         "Marketplace API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotenv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serve := newServeCmd()
	root.AddCommand(serve, newAdminCmd())
	root.RunE = serve.RunE
	return root
}
