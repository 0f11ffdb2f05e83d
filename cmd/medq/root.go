package main

import (
	"github.com/spf13/cobra"
)

var (
	envFile       string
	publishEvents bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medq",
		Short: "medq - medical query assistant",
		Long: `medq submits free-text medical questions to the configured answer
service and prints the answer with its references.

Configuration is loaded from environment variables and an optional .env file.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&publishEvents, "publish-events", false, "publish query events to NATS_URL")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newMCPCmd())
	return rootCmd
}
