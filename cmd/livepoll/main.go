// livepoll is a live poll service for the terminal: a moderator starts the
// server, participants connect over SSH, join a poll by its short code, and
// watch the tally update as votes come in.
//
// Usage:
//
//	livepoll serve               - Start the SSH server
//	livepoll create <question>   - Create a durable poll from the CLI
//	livepoll list                - List stored polls
//	livepoll vote <code> <n>     - Vote on a durable poll
//	livepoll results <code>      - Show a stored poll's results
//
// Global flags:
//
//	--db <path>      - Database path (default: ~/.livepoll/livepoll.db)
//	--config <path>  - Config file path
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagDBPath     string
	flagConfigPath string
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "livepoll",
	Short: "Live polls in your terminal",
	Long: `livepoll is a terminal-based live poll service.

Available commands:
  serve    - Start the SSH server hosting live polls
  create   - Create a durable poll directly in the store
  list     - List stored polls
  vote     - Vote on a durable poll
  results  - Show a stored poll's results

Examples:
  livepoll serve
  livepoll serve --ssh :2222
  livepoll create "Coffee or tea?" Coffee Tea
  livepoll results ABC123`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to the config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(resultsCmd)
}
