package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	var envFile string
	rootCmd := &cobra.Command{
		Use:   "dlms",
		Short: "Driver license management service",
		Long: `dlms runs the driver license management API: applicant registry,
licensing procedures, license issuance and appointment scheduling.

Configuration comes from the environment, optionally preloaded from a .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(sweepCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
