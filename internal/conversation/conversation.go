// Package conversation defines the session conversation log: one [Record]
// per learner utterance with the system's reply and the analysis artifacts
// produced for it.
//
// The log is owned by a [Store]. Callers append records and read a
// session's records back in append order; nothing in the application keeps
// per-session history of its own. Records are never modified once stored.
package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrMalformedRecord is returned when a stored analysis artifact cannot be
// decoded. It signals corrupted data in the store.
var ErrMalformedRecord = errors.New("conversation: malformed record")

// Artifact names, matching the stored column and JSON names.
const (
	FieldGrammarErrors       = "grammar_errors"
	FieldPronunciationErrors = "pronunciation_errors"
	FieldPatternAnalysis     = "pattern_analysis"
)

// Record is one utterance of a practice session.
type Record struct {
	ID             string `json:"id"`
	SessionID      string `json:"session_id"`
	UserText       string `json:"user_text"`
	SystemResponse string `json:"system_response"`

	// The analysis artifacts are stored as JSON documents exactly as the
	// producing packages serialise them.
	GrammarErrors       json.RawMessage `json:"grammar_errors,omitempty"`
	PronunciationErrors json.RawMessage `json:"pronunciation_errors,omitempty"`
	PatternAnalysis     json.RawMessage `json:"pattern_analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Store is the conversation log.
//
// Implementations must be safe for concurrent use. A read issued after an
// Append has returned must observe that record.
type Store interface {
	// Append stores rec and returns it with ID and CreatedAt filled in when
	// they were empty.
	Append(ctx context.Context, rec Record) (Record, error)

	// AllForSession returns every record of sessionID in append order. An
	// unknown session yields an empty slice.
	AllForSession(ctx context.Context, sessionID string) ([]Record, error)

	// Close releases the store's resources.
	Close() error
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewID returns a new lexically sortable record or session identifier.
func NewID() string {
	return ulid.Make().String()
}

// Prepare fills in the ID and CreatedAt of rec when they are unset. Store
// implementations call it at the start of Append.
func Prepare(rec Record) Record {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// Encode marshals an artifact for storage in a Record.
func Encode(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("conversation: encode artifact: %w", err)
	}
	return b, nil
}

// Empty reports whether raw holds no artifact: nothing, null, an empty list
// or an empty object.
func Empty(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

// Decode unmarshals the artifact field of r into v. A missing or null
// artifact leaves v untouched. Any decode failure wraps
// [ErrMalformedRecord] and names the record and field.
func (r Record) Decode(field string, v any) error {
	var raw json.RawMessage
	switch field {
	case FieldGrammarErrors:
		raw = r.GrammarErrors
	case FieldPronunciationErrors:
		raw = r.PronunciationErrors
	case FieldPatternAnalysis:
		raw = r.PatternAnalysis
	default:
		return fmt.Errorf("conversation: unknown artifact %q", field)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: record %s field %s: %v", ErrMalformedRecord, r.ID, field, err)
	}
	return nil
}
