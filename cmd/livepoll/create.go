package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/livepoll/internal/auth"
	"github.com/vovakirdan/livepoll/internal/config"
)

var createCmd = &cobra.Command{
	Use:   "create <question> <option> <option> [option...]",
	Short: "Create a durable poll in the store",
	Long: `Create a poll document directly in the database, without going
through a live session. Prints the poll code and an owner token; keep the
token, it is shown only once.

Examples:
  livepoll create "Coffee or tea?" Coffee Tea
  livepoll create "Best day for standup?" Mon Tue Wed`,
	Args: cobra.MinimumNArgs(3),
	Run:  runCreate,
}

func runCreate(_ *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	token, err := auth.GenerateOwnerToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating owner token: %v\n", err)
		os.Exit(1)
	}

	code, err := store.CreatePoll(args[0], args[1:], token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating poll: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Poll created\n")
	fmt.Printf("  Code:        %s\n", code)
	fmt.Printf("  Owner token: %s\n", token)
}

// loadStorageConfig resolves the database path from flags and config.
func loadStorageConfig() config.ServerConfig {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	return cfg
}
