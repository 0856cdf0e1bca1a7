// Package mock provides a configurable test double for [conversation.Store].
//
// Store records every call and keeps appended records in memory so reads see
// earlier writes, like a real store. Set the *Err fields to inject failures.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lingoxa/internal/conversation"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	Method string
	Args   []any
}

// Store is a mock implementation of [conversation.Store].
type Store struct {
	mu sync.Mutex

	calls   []Call
	records []conversation.Record

	// AppendErr is returned by Append when non-nil; the record is not kept.
	AppendErr error

	// AllForSessionResult, when non-nil, is returned by AllForSession
	// instead of the appended records.
	AllForSessionResult []conversation.Record

	// AllForSessionErr is returned by AllForSession when non-nil.
	AllForSessionErr error
}

var _ conversation.Store = (*Store)(nil)

// Append implements [conversation.Store].
func (s *Store) Append(_ context.Context, rec conversation.Record) (conversation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "Append", Args: []any{rec}})
	if s.AppendErr != nil {
		return conversation.Record{}, s.AppendErr
	}
	rec = conversation.Prepare(rec)
	s.records = append(s.records, rec)
	return rec, nil
}

// AllForSession implements [conversation.Store].
func (s *Store) AllForSession(_ context.Context, sessionID string) ([]conversation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "AllForSession", Args: []any{sessionID}})
	if s.AllForSessionErr != nil {
		return nil, s.AllForSessionErr
	}
	if s.AllForSessionResult != nil {
		return append([]conversation.Record(nil), s.AllForSessionResult...), nil
	}
	out := []conversation.Record{}
	for _, r := range s.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close implements [conversation.Store].
func (s *Store) Close() error { return nil }

// Calls returns a copy of all recorded calls.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many times method was called.
func (s *Store) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Records returns a copy of every successfully appended record.
func (s *Store) Records() []conversation.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Record(nil), s.records...)
}
