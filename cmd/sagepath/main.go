package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/cli"
	"github.com/sagepath-app/sagepath/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sagepath",
		Short: "Sagepath CLI - personal development coaching",
		Long: `Sagepath CLI provides commands to search and browse the coaching question bank.

Environment variables:
  SAGEPATH_ACCESS_TOKEN   Session access token (sgp_...)
  SAGEPATH_REFRESH_TOKEN  Session refresh token (sgp_...)
  SAGEPATH_API_URL        API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("access-token", "", "Session access token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AuthCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.RecommendCmd())
	rootCmd.AddCommand(client.QuestionsCmd())
	rootCmd.AddCommand(client.ProfileCmd())
	rootCmd.AddCommand(client.ChatCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
