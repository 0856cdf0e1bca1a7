// Package postgres stores the conversation log in PostgreSQL. Analysis
// artifacts are kept in JSONB columns so they can be queried in place.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/lingoxa/internal/conversation"
)

const ddlConversations = `
CREATE TABLE IF NOT EXISTS conversations (
    seq                  BIGSERIAL    PRIMARY KEY,
    id                   TEXT         NOT NULL UNIQUE,
    session_id           TEXT         NOT NULL,
    user_text            TEXT         NOT NULL,
    system_response      TEXT         NOT NULL,
    grammar_errors       JSONB,
    pronunciation_errors JSONB,
    pattern_analysis     JSONB,
    created_at           TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_conversations_session_seq
    ON conversations (session_id, seq);
`

// Migrate creates the conversations table and its index if they do not
// exist. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlConversations); err != nil {
		return fmt.Errorf("postgres store: migrate: %w", err)
	}
	return nil
}

// Store is a PostgreSQL-backed [conversation.Store]. All methods are safe
// for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ conversation.Store  = (*Store)(nil)
	_ conversation.Pinger = (*Store)(nil)
)

// NewStore connects to dsn, verifies the connection and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Append implements [conversation.Store].
func (s *Store) Append(ctx context.Context, rec conversation.Record) (conversation.Record, error) {
	rec = conversation.Prepare(rec)
	const q = `
		INSERT INTO conversations
		    (id, session_id, user_text, system_response,
		     grammar_errors, pronunciation_errors, pattern_analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID,
		rec.SessionID,
		rec.UserText,
		rec.SystemResponse,
		jsonb(rec.GrammarErrors),
		jsonb(rec.PronunciationErrors),
		jsonb(rec.PatternAnalysis),
		rec.CreatedAt,
	)
	if err != nil {
		return conversation.Record{}, fmt.Errorf("postgres store: append: %w", err)
	}
	return rec, nil
}

// AllForSession implements [conversation.Store].
func (s *Store) AllForSession(ctx context.Context, sessionID string) ([]conversation.Record, error) {
	const q = `
		SELECT id, session_id, user_text, system_response,
		       grammar_errors, pronunciation_errors, pattern_analysis, created_at
		FROM   conversations
		WHERE  session_id = $1
		ORDER  BY seq`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: query session: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Record, error) {
		var (
			r                      conversation.Record
			grammar, pron, pattern []byte
		)
		if err := row.Scan(&r.ID, &r.SessionID, &r.UserText, &r.SystemResponse,
			&grammar, &pron, &pattern, &r.CreatedAt); err != nil {
			return conversation.Record{}, err
		}
		r.GrammarErrors = grammar
		r.PronunciationErrors = pron
		r.PatternAnalysis = pattern
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan rows: %w", err)
	}
	if recs == nil {
		recs = []conversation.Record{}
	}
	return recs, nil
}

// Ping implements [conversation.Pinger].
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements [conversation.Store].
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// jsonb maps an empty artifact to SQL NULL.
func jsonb(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}
