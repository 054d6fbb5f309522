package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/livepoll/internal/auth"
	"github.com/vovakirdan/livepoll/internal/storage"
)

var flagResultsToken string

var resultsCmd = &cobra.Command{
	Use:   "results <code>",
	Short: "Show the results of a stored poll",
	Long: `Show the tally for a durable poll or an archived live session.

With --token and a valid owner token (or a code signature issued by the
server), the individual vote log for durable polls is included.

Examples:
  livepoll results K7KX2A
  livepoll results K7KX2A --token dGhlLW93bmVyLXRva2Vu`,
	Args: cobra.ExactArgs(1),
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&flagResultsToken, "token", "", "Owner token for the vote log")
}

func runResults(_ *cobra.Command, args []string) {
	code := strings.ToUpper(strings.TrimSpace(args[0]))
	cfg := loadStorageConfig()

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Bar width follows the terminal, within reason.
	width := 40
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 50 {
		width = w - 40
		if width > 60 {
			width = 60
		}
	}

	record, err := store.GetPoll(code)
	if errors.Is(err, storage.ErrNotFound) {
		showArchived(store, code, width)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading poll: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s  %s\n", record.Code, record.Question)
	fmt.Printf("Created %s\n\n", record.CreatedAt.Format("2006-01-02 15:04"))
	printTally(record.Options, record.Tally, width)

	if flagResultsToken == "" {
		return
	}
	if err := verifyOwner(record, code, cfg.Storage.TokenSalt); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
	votes, err := store.ListVotes(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading votes: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nVote log:")
	if len(votes) == 0 {
		fmt.Println("  (no votes yet)")
		return
	}
	for _, v := range votes {
		name := v.VoterName
		if name == "" {
			name = "anonymous"
		}
		opt := fmt.Sprintf("option %d", v.OptionIndex)
		if v.OptionIndex >= 0 && v.OptionIndex < len(record.Options) {
			opt = record.Options[v.OptionIndex]
		}
		fmt.Printf("  %s  %-20s %s\n", v.CreatedAt.Format("2006-01-02 15:04"), truncate(name, 20), opt)
	}
}

// verifyOwner accepts either the stored owner token or an HMAC signature of
// the poll code made with the server salt.
func verifyOwner(record storage.PollRecord, code, salt string) error {
	if auth.VerifyOwnerToken(record.OwnerToken, flagResultsToken) == nil {
		return nil
	}
	if salt != "" && auth.VerifyCode(code, flagResultsToken, salt) == nil {
		return nil
	}
	return auth.ErrInvalidToken
}

// showArchived falls back to the live session archive when no durable poll
// matches the code.
func showArchived(store *storage.Store, code string, width int) {
	archived, err := store.ArchivedSessions(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading archive: %v\n", err)
		os.Exit(1)
	}
	for _, s := range archived {
		if s.Code != code {
			continue
		}
		fmt.Printf("%s  %s\n", s.Code, s.Question)
		fmt.Printf("Live session, closed %s, peak %d participant(s)\n\n",
			s.ClosedAt.Format("2006-01-02 15:04"), s.PeakParticipants)
		printTally(s.Options, s.Tally, width)
		return
	}
	fmt.Fprintf(os.Stderr, "No poll found under code %s\n", code)
	os.Exit(1)
}

func printTally(options []string, tally []int, width int) {
	total := 0
	for _, n := range tally {
		total += n
	}
	for i, opt := range options {
		fmt.Printf("  %d. %-24s %s %d\n", i+1, truncate(opt, 24), textBar(tally[i], total, width), tally[i])
	}
	fmt.Printf("\n%d vote(s) total\n", total)
}

// textBar renders a proportional bar for one option.
func textBar(count, total, width int) string {
	filled := 0
	if total > 0 {
		filled = count * width / total
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
