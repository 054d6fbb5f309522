// Package storage provides SQLite-based persistence for durable poll
// documents and archives of finished live sessions.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
//
// The durable documents and the live session state are deliberately separate
// stores: a live session's tally only reaches this package once, when the
// session is destroyed and archived.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/livepoll/internal/live"
	"github.com/vovakirdan/livepoll/internal/poll"
)

// ErrNotFound is returned when no poll exists under the requested code.
var ErrNotFound = errors.New("storage: poll not found")

// Store manages the SQLite database connection.
type Store struct {
	db    *sql.DB
	codes *poll.CodeGenerator
}

// PollRecord is a durable poll document.
type PollRecord struct {
	Code       string
	Question   string
	Options    []string
	Tally      []int
	OwnerToken string
	CreatedAt  time.Time
}

// SessionRecord is the archived snapshot of a finished live session.
type SessionRecord struct {
	ID               int64
	Code             string
	Question         string
	Options          []string
	Tally            []int
	PeakParticipants int
	CreatedAt        time.Time
	ClosedAt         time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database. The busy timeout makes concurrent writers queue
	// instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{
		db:    db,
		codes: poll.NewCodeGenerator(0, 0),
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS polls (
			code TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			tally TEXT NOT NULL,
			owner_token TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_polls_created ON polls(created_at DESC);

		CREATE TABLE IF NOT EXISTS poll_votes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			poll_code TEXT NOT NULL,
			option_index INTEGER NOT NULL,
			voter_name TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_poll_votes_code ON poll_votes(poll_code);

		CREATE TABLE IF NOT EXISTS session_archive (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			tally TEXT NOT NULL,
			peak_participants INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			closed_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_session_archive_closed ON session_archive(closed_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreatePoll stores a new durable poll document under a fresh unique code
// and returns the code. Validation matches the live registry: at least two
// non-empty options.
func (s *Store) CreatePoll(question string, options []string, ownerToken string) (string, error) {
	question, options, err := poll.ValidateDefinition(question, options)
	if err != nil {
		return "", err
	}

	code, err := s.codes.Generate(func(code string) bool {
		var one int
		err := s.db.QueryRow("SELECT 1 FROM polls WHERE code = ?", code).Scan(&one)
		return err == nil
	})
	if err != nil {
		return "", fmt.Errorf("storage: cannot allocate poll code: %w", err)
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode options: %w", err)
	}
	tallyJSON, err := json.Marshal(make([]int, len(options)))
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode tally: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO polls (code, question, options, tally, owner_token) VALUES (?, ?, ?, ?, ?)",
		code, question, string(optionsJSON), string(tallyJSON), ownerToken,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot create poll: %w", err)
	}

	return code, nil
}

// GetPoll retrieves a durable poll document by code.
func (s *Store) GetPoll(code string) (PollRecord, error) {
	var record PollRecord
	var optionsJSON, tallyJSON string

	var createdAt any
	err := s.db.QueryRow(
		"SELECT code, question, options, tally, owner_token, created_at FROM polls WHERE code = ?",
		code,
	).Scan(&record.Code, &record.Question, &optionsJSON, &tallyJSON, &record.OwnerToken, &createdAt)
	if err == sql.ErrNoRows {
		return PollRecord{}, ErrNotFound
	}
	if err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot read poll: %w", err)
	}

	if err := decodeRecord(optionsJSON, tallyJSON, &record.Options, &record.Tally); err != nil {
		return PollRecord{}, err
	}
	record.CreatedAt = decodeTime(createdAt)
	return record, nil
}

// Vote applies one vote to a durable poll document and returns the updated
// record. The read, the tally update, and the vote row share one
// transaction, so concurrent voters cannot lose updates.
func (s *Store) Vote(code string, optionIndex int, voterName string) (PollRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot begin vote: %w", err)
	}
	defer tx.Rollback()

	var record PollRecord
	var optionsJSON, tallyJSON string
	var createdAt any
	err = tx.QueryRow(
		"SELECT code, question, options, tally, owner_token, created_at FROM polls WHERE code = ?",
		code,
	).Scan(&record.Code, &record.Question, &optionsJSON, &tallyJSON, &record.OwnerToken, &createdAt)
	if err == sql.ErrNoRows {
		return PollRecord{}, ErrNotFound
	}
	if err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot read poll: %w", err)
	}
	if err := decodeRecord(optionsJSON, tallyJSON, &record.Options, &record.Tally); err != nil {
		return PollRecord{}, err
	}
	record.CreatedAt = decodeTime(createdAt)

	if optionIndex < 0 || optionIndex >= len(record.Options) {
		return PollRecord{}, poll.ErrInvalidOption
	}

	record.Tally[optionIndex]++
	newTallyJSON, err := json.Marshal(record.Tally)
	if err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot encode tally: %w", err)
	}

	if _, err := tx.Exec("UPDATE polls SET tally = ? WHERE code = ?", string(newTallyJSON), code); err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot update tally: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO poll_votes (poll_code, option_index, voter_name) VALUES (?, ?, ?)",
		code, optionIndex, voterName,
	); err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot record vote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return PollRecord{}, fmt.Errorf("storage: cannot commit vote: %w", err)
	}

	return record, nil
}

// ListPolls returns up to limit durable polls, newest first.
func (s *Store) ListPolls(limit int) ([]PollRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		"SELECT code, question, options, tally, owner_token, created_at FROM polls ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list polls: %w", err)
	}
	defer rows.Close()

	var records []PollRecord
	for rows.Next() {
		var record PollRecord
		var optionsJSON, tallyJSON string
		var createdAt any
		if err := rows.Scan(&record.Code, &record.Question, &optionsJSON, &tallyJSON, &record.OwnerToken, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan poll: %w", err)
		}
		if err := decodeRecord(optionsJSON, tallyJSON, &record.Options, &record.Tally); err != nil {
			return nil, err
		}
		record.CreatedAt = decodeTime(createdAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// VoteEntry is one recorded vote on a durable poll.
type VoteEntry struct {
	OptionIndex int
	VoterName   string
	CreatedAt   time.Time
}

// ListVotes returns the individual votes cast on a durable poll, oldest
// first. Owner-only data; callers gate access.
func (s *Store) ListVotes(code string) ([]VoteEntry, error) {
	rows, err := s.db.Query(
		"SELECT option_index, voter_name, created_at FROM poll_votes WHERE poll_code = ? ORDER BY created_at, id",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list votes: %w", err)
	}
	defer rows.Close()

	var votes []VoteEntry
	for rows.Next() {
		var v VoteEntry
		var createdAt any
		if err := rows.Scan(&v.OptionIndex, &v.VoterName, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan vote: %w", err)
		}
		v.CreatedAt = decodeTime(createdAt)
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// ArchiveSession stores the final snapshot of a destroyed live session.
// Implements live.SessionArchiver.
func (s *Store) ArchiveSession(a live.SessionArchive) error {
	optionsJSON, err := json.Marshal(a.Options)
	if err != nil {
		return fmt.Errorf("storage: cannot encode options: %w", err)
	}
	tallyJSON, err := json.Marshal(a.Tally)
	if err != nil {
		return fmt.Errorf("storage: cannot encode tally: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO session_archive (code, question, options, tally, peak_participants, created_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Code, a.Question, string(optionsJSON), string(tallyJSON),
		a.PeakParticipants, a.CreatedAt, a.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot archive session: %w", err)
	}
	return nil
}

// ArchivedSessions returns up to limit archived sessions, newest first.
func (s *Store) ArchivedSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, code, question, options, tally, peak_participants, created_at, closed_at
		 FROM session_archive ORDER BY closed_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list archive: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var record SessionRecord
		var optionsJSON, tallyJSON string
		var createdAt, closedAt any
		if err := rows.Scan(
			&record.ID, &record.Code, &record.Question, &optionsJSON, &tallyJSON,
			&record.PeakParticipants, &createdAt, &closedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan archive row: %w", err)
		}
		if err := decodeRecord(optionsJSON, tallyJSON, &record.Options, &record.Tally); err != nil {
			return nil, err
		}
		record.CreatedAt = decodeTime(createdAt)
		record.ClosedAt = decodeTime(closedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

func decodeRecord(optionsJSON, tallyJSON string, options *[]string, tally *[]int) error {
	if err := json.Unmarshal([]byte(optionsJSON), options); err != nil {
		return fmt.Errorf("storage: corrupt options column: %w", err)
	}
	if err := json.Unmarshal([]byte(tallyJSON), tally); err != nil {
		return fmt.Errorf("storage: corrupt tally column: %w", err)
	}
	if len(*tally) != len(*options) {
		return fmt.Errorf("storage: tally/options length mismatch")
	}
	return nil
}

// decodeTime handles both time.Time and string datetime columns; the driver
// returns either depending on how the value was written.
func decodeTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	case []byte:
		return decodeTime(string(t))
	}
	return time.Time{}
}
