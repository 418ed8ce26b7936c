// Package store keeps a local SQLite ledger of model calls made by the inference pipeline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/dimabsa/absa"
	_ "modernc.org/sqlite"
)

const createLLMEventsTableSQL = `
CREATE TABLE IF NOT EXISTS llm_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at_utc TEXT NOT NULL,
	profile TEXT NOT NULL,
	item_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	status TEXT NOT NULL,
	response_text TEXT NOT NULL,
	error_message TEXT NOT NULL,
	quadruplet_count INTEGER NOT NULL
)`

var createLLMEventsIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_llm_events_lookup ON llm_events(profile, item_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_status ON llm_events(status)`,
}

const insertLLMEventSQL = `
INSERT INTO llm_events (
	created_at_utc,
	profile,
	item_id,
	provider,
	model,
	prompt_tokens,
	status,
	response_text,
	error_message,
	quadruplet_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Only the latest event for an item counts: a later failure hides an earlier success.
const selectLatestEventSQL = `
SELECT status, response_text
FROM llm_events
WHERE profile = ? AND item_id = ?
ORDER BY id DESC
LIMIT 1`

const countByStatusSQL = `SELECT status, COUNT(*) FROM llm_events WHERE profile = ? GROUP BY status`

// Ledger is an absa.Ledger backed by SQLite.
type Ledger struct {
	db *sql.DB
}

var _ absa.Ledger = (*Ledger)(nil)

// Open opens (creating if needed) the ledger database at dbPath.
func Open(dbPath string) (*Ledger, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) RecordCall(ctx context.Context, ev absa.CallEvent) error {
	if l == nil || l.db == nil {
		return errors.New("ledger is not initialized")
	}
	if ev.CreatedAtUTC.IsZero() {
		ev.CreatedAtUTC = time.Now().UTC()
	}
	if _, err := l.db.ExecContext(ctx,
		insertLLMEventSQL,
		ev.CreatedAtUTC.UTC().Format(time.RFC3339),
		strings.TrimSpace(ev.Profile),
		strings.TrimSpace(ev.ItemID),
		strings.TrimSpace(ev.Provider),
		strings.TrimSpace(ev.Model),
		ev.PromptTokens,
		ev.Status,
		ev.ResponseText,
		strings.TrimSpace(ev.ErrorMessage),
		ev.QuadrupletCount,
	); err != nil {
		return fmt.Errorf("insert llm event: %w", err)
	}
	return nil
}

// LastOKResponse returns the stored response text when the item's latest event succeeded.
func (l *Ledger) LastOKResponse(ctx context.Context, profile, itemID string) (string, bool, error) {
	if l == nil || l.db == nil {
		return "", false, errors.New("ledger is not initialized")
	}
	var status, text string
	err := l.db.QueryRowContext(ctx, selectLatestEventSQL, strings.TrimSpace(profile), strings.TrimSpace(itemID)).Scan(&status, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select latest llm event: %w", err)
	}
	if status != absa.StatusOK {
		return "", false, nil
	}
	return text, true, nil
}

// StatusCounts tallies every recorded event for profile by status.
func (l *Ledger) StatusCounts(ctx context.Context, profile string) (map[string]int, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger is not initialized")
	}
	rows, err := l.db.QueryContext(ctx, countByStatusSQL, strings.TrimSpace(profile))
	if err != nil {
		return nil, fmt.Errorf("count llm events: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan llm event count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func openSQLite(dbPath string) (*sql.DB, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the pool's connections.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(createLLMEventsTableSQL); err != nil {
		return fmt.Errorf("create llm_events: %w", err)
	}
	for _, stmt := range createLLMEventsIndexesSQL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create llm_events index: %w", err)
		}
	}
	return nil
}
