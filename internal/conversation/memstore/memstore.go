// Package memstore is an in-memory [conversation.Store]. Records are lost
// when the process exits.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/lingoxa/internal/conversation"
)

// Store keeps every session's records in a map guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]conversation.Record
}

var (
	_ conversation.Store  = (*Store)(nil)
	_ conversation.Pinger = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string][]conversation.Record)}
}

// Append implements [conversation.Store].
func (s *Store) Append(ctx context.Context, rec conversation.Record) (conversation.Record, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Record{}, err
	}
	rec = conversation.Prepare(rec)
	s.mu.Lock()
	s.sessions[rec.SessionID] = append(s.sessions[rec.SessionID], clone(rec))
	s.mu.Unlock()
	return rec, nil
}

// AllForSession implements [conversation.Store]. The returned records do not
// share memory with the store.
func (s *Store) AllForSession(ctx context.Context, sessionID string) ([]conversation.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.sessions[sessionID]
	out := make([]conversation.Record, len(recs))
	for i, r := range recs {
		out[i] = clone(r)
	}
	return out, nil
}

// Ping implements [conversation.Pinger]; it always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close implements [conversation.Store].
func (s *Store) Close() error { return nil }

func clone(r conversation.Record) conversation.Record {
	r.GrammarErrors = slices.Clone(r.GrammarErrors)
	r.PronunciationErrors = slices.Clone(r.PronunciationErrors)
	r.PatternAnalysis = slices.Clone(r.PatternAnalysis)
	return r
}
