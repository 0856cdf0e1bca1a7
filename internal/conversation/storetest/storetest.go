// Package storetest holds the behaviour every [conversation.Store]
// implementation must share. Backend packages call [Run] from their tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/MrWong99/lingoxa/internal/conversation"
)

// Run exercises the store returned by newStore. newStore must return an
// empty store and arrange for it to be closed.
func Run(t *testing.T, newStore func(t *testing.T) conversation.Store) {
	t.Helper()

	t.Run("AppendAssignsIdentity", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.Append(context.Background(), conversation.Record{SessionID: "s1", UserText: "hi"})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Errorf("Append returned %+v, want ID and CreatedAt set", rec)
		}
	})

	t.Run("RoundTripPreservesArtifacts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		in := conversation.Record{
			SessionID:           "s1",
			UserText:            "This is my cat.",
			SystemResponse:      "Interesting. Please tell me more about something else.",
			GrammarErrors:       json.RawMessage(`[]`),
			PronunciationErrors: json.RawMessage(`[{"word":"this","user_phonemes":["D","IH0","S"]}]`),
			PatternAnalysis:     json.RawMessage(`{"filler_count":0,"category":"statement"}`),
		}
		stored, err := s.Append(ctx, in)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}

		got, err := s.AllForSession(ctx, "s1")
		if err != nil {
			t.Fatalf("AllForSession: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
		r := got[0]
		if r.ID != stored.ID || r.UserText != in.UserText || r.SystemResponse != in.SystemResponse {
			t.Errorf("record = %+v, want %+v", r, stored)
		}
		assertJSON(t, "pronunciation_errors", r.PronunciationErrors, in.PronunciationErrors)
		assertJSON(t, "pattern_analysis", r.PatternAnalysis, in.PatternAnalysis)
		if !conversation.Empty(r.GrammarErrors) {
			t.Errorf("grammar_errors = %s, want empty", r.GrammarErrors)
		}
	})

	t.Run("MissingArtifactsStayEmpty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.Append(ctx, conversation.Record{SessionID: "s1", UserText: "hello"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
		got, err := s.AllForSession(ctx, "s1")
		if err != nil {
			t.Fatalf("AllForSession: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
		for name, raw := range map[string]json.RawMessage{
			"grammar_errors":       got[0].GrammarErrors,
			"pronunciation_errors": got[0].PronunciationErrors,
			"pattern_analysis":     got[0].PatternAnalysis,
		} {
			if !conversation.Empty(raw) {
				t.Errorf("%s = %s, want empty", name, raw)
			}
		}
	})

	t.Run("OrderAndIsolation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := range 5 {
			for _, sess := range []string{"a", "b"} {
				if _, err := s.Append(ctx, conversation.Record{
					SessionID: sess,
					UserText:  fmt.Sprintf("%s-%d", sess, i),
				}); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}
		}
		got, err := s.AllForSession(ctx, "a")
		if err != nil {
			t.Fatalf("AllForSession: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("session a has %d records, want 5", len(got))
		}
		for i, r := range got {
			if want := fmt.Sprintf("a-%d", i); r.UserText != want {
				t.Errorf("record %d = %q, want %q", i, r.UserText, want)
			}
		}

		none, err := s.AllForSession(ctx, "unknown")
		if err != nil {
			t.Fatalf("AllForSession(unknown): %v", err)
		}
		if none == nil || len(none) != 0 {
			t.Errorf("AllForSession(unknown) = %#v, want empty non-nil", none)
		}
	})

	t.Run("ConcurrentAppend", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Go(func() {
				if _, err := s.Append(ctx, conversation.Record{SessionID: "c", UserText: fmt.Sprint(i)}); err != nil {
					errs <- err
				}
			})
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("Append: %v", err)
		}
		got, err := s.AllForSession(ctx, "c")
		if err != nil {
			t.Fatalf("AllForSession: %v", err)
		}
		if len(got) != 20 {
			t.Errorf("got %d records, want 20", len(got))
		}
	})
}

// assertJSON compares two JSON documents semantically, since some backends
// normalise whitespace and key order.
func assertJSON(t *testing.T, name string, got, want json.RawMessage) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("%s: stored value %q is not JSON: %v", name, got, err)
	}
	if err := json.Unmarshal(want, &w); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if string(gb) != string(wb) {
		t.Errorf("%s = %s, want %s", name, gb, wb)
	}
}
