package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var flagVoteName string

var voteCmd = &cobra.Command{
	Use:   "vote <code> <option-number>",
	Short: "Vote on a durable poll",
	Long: `Cast one vote on a durable poll. Option numbers start at 1, as shown
by "livepoll results".

Examples:
  livepoll vote K7KX2A 2
  livepoll vote K7KX2A 1 --name alice`,
	Args: cobra.ExactArgs(2),
	Run:  runVote,
}

func init() {
	voteCmd.Flags().StringVar(&flagVoteName, "name", "", "Voter name recorded in the vote log")
}

func runVote(_ *cobra.Command, args []string) {
	code := strings.ToUpper(strings.TrimSpace(args[0]))
	number, err := strconv.Atoi(args[1])
	if err != nil || number < 1 {
		fmt.Fprintf(os.Stderr, "Option must be a number starting at 1, got %q\n", args[1])
		os.Exit(1)
	}

	store := openStore()
	defer store.Close()

	record, err := store.Vote(code, number-1, flagVoteName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording vote: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Vote recorded on %s\n", record.Code)
	for i, opt := range record.Options {
		fmt.Printf("  %d. %-24s %d\n", i+1, truncate(opt, 24), record.Tally[i])
	}
}
