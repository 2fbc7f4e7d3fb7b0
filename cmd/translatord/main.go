package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "translatord",
	Short: "Context-aware chat message translation daemon",
	Long: `translatord ingests chat messages into a local SQLite store and
translates them on demand, using surrounding conversation as context.
Translation triggers (reactions, explicit commands) arrive over the HTTP
API or the MCP tool surface; chat-platform connectors are clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("translatord %s\n", version)
	},
}

func main() {
	// A .env file is optional; env vars win either way.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(translationsCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
