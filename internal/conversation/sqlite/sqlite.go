// Package sqlite stores the conversation log in a SQLite database file using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrWong99/lingoxa/internal/conversation"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id                   TEXT PRIMARY KEY,
	session_id           TEXT NOT NULL,
	user_text            TEXT NOT NULL,
	system_response      TEXT NOT NULL,
	grammar_errors       TEXT,
	pronunciation_errors TEXT,
	pattern_analysis     TEXT,
	created_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
`

// Store is a SQLite-backed [conversation.Store].
type Store struct {
	db *sql.DB
}

var (
	_ conversation.Store  = (*Store)(nil)
	_ conversation.Pinger = (*Store)(nil)
)

// Open opens or creates the database at path and applies the schema. The
// parent directory is created when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite store: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Append implements [conversation.Store].
func (s *Store) Append(ctx context.Context, rec conversation.Record) (conversation.Record, error) {
	rec = conversation.Prepare(rec)
	const q = `
		INSERT INTO conversations
		    (id, session_id, user_text, system_response,
		     grammar_errors, pronunciation_errors, pattern_analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.SessionID,
		rec.UserText,
		rec.SystemResponse,
		nullable(rec.GrammarErrors),
		nullable(rec.PronunciationErrors),
		nullable(rec.PatternAnalysis),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return conversation.Record{}, fmt.Errorf("sqlite store: append: %w", err)
	}
	return rec, nil
}

// AllForSession implements [conversation.Store]. Records come back in
// insertion order.
func (s *Store) AllForSession(ctx context.Context, sessionID string) ([]conversation.Record, error) {
	const q = `
		SELECT id, session_id, user_text, system_response,
		       grammar_errors, pronunciation_errors, pattern_analysis, created_at
		FROM   conversations
		WHERE  session_id = ?
		ORDER  BY rowid`
	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: query session: %w", err)
	}
	defer rows.Close()

	recs := []conversation.Record{}
	for rows.Next() {
		var (
			r                      conversation.Record
			grammar, pron, pattern sql.NullString
			created                string
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UserText, &r.SystemResponse,
			&grammar, &pron, &pattern, &created); err != nil {
			return nil, fmt.Errorf("sqlite store: scan: %w", err)
		}
		r.GrammarErrors = raw(grammar)
		r.PronunciationErrors = raw(pron)
		r.PatternAnalysis = raw(pattern)
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s created_at: %v", conversation.ErrMalformedRecord, r.ID, err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: rows: %w", err)
	}
	return recs, nil
}

// Ping implements [conversation.Pinger].
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements [conversation.Store].
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(m json.RawMessage) sql.NullString {
	if len(m) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(m), Valid: true}
}

func raw(ns sql.NullString) json.RawMessage {
	if !ns.Valid {
		return nil
	}
	return json.RawMessage(ns.String)
}
