package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/livepoll/internal/storage"
)

var flagListLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored polls",
	Long: `List durable polls and archived live sessions, newest first.

Examples:
  livepoll list
  livepoll list --limit 5`,
	Run: runList,
}

func init() {
	listCmd.Flags().IntVar(&flagListLimit, "limit", 20, "Maximum number of entries to show")
}

func runList(_ *cobra.Command, _ []string) {
	store := openStore()
	defer store.Close()

	polls, err := store.ListPolls(flagListLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing polls: %v\n", err)
		os.Exit(1)
	}
	archived, err := store.ArchivedSessions(flagListLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing archive: %v\n", err)
		os.Exit(1)
	}

	if len(polls) == 0 && len(archived) == 0 {
		fmt.Println("No stored polls yet.")
		return
	}

	if len(polls) > 0 {
		fmt.Println("Durable polls:")
		for _, p := range polls {
			fmt.Printf("  %s  %-40s %s\n", p.Code, truncate(p.Question, 40), p.CreatedAt.Format("2006-01-02 15:04"))
		}
	}
	if len(archived) > 0 {
		fmt.Println("Finished live sessions:")
		for _, s := range archived {
			fmt.Printf("  %s  %-40s closed %s\n", s.Code, truncate(s.Question, 40), s.ClosedAt.Format("2006-01-02 15:04"))
		}
	}
}

// openStore opens the configured database or exits.
func openStore() *storage.Store {
	cfg := loadStorageConfig()
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
