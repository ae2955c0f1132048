package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/cli"
	"github.com/sagepath-app/sagepath/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sagepathd",
		Short: "Sagepath daemon and admin CLI",
		Long:  "Sagepath daemon for running the API server and managing users and the question bank",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.BackfillCmd())
	rootCmd.AddCommand(admin.ImportCmd())
	rootCmd.AddCommand(admin.UserCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
