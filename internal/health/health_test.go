package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serve(t *testing.T, h *Handler, path string) (int, result) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "never", Check: func(context.Context) error { return errors.New("down") }})
	code, body := serve(t, h, "/healthz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	entries := 0
	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "all pass",
			checkers:   []Checker{Ping("store", pinger{}), NonEmpty("dictionary", func() int { return 3 })},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"store": "ok", "dictionary": "ok"},
		},
		{
			name:       "store down",
			checkers:   []Checker{Ping("store", pinger{errors.New("connection refused")}), NonEmpty("dictionary", func() int { return 3 })},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{"store": "fail: connection refused", "dictionary": "ok"},
		},
		{
			name:       "empty dictionary",
			checkers:   []Checker{NonEmpty("dictionary", func() int { return entries })},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{"dictionary": "fail: empty"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, body := serve(t, New(tt.checkers...), "/readyz")
			if code != tt.wantCode || body.Status != tt.wantStatus {
				t.Errorf("readyz = %d %q, want %d %q", code, body.Status, tt.wantCode, tt.wantStatus)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("checks[%s] = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_CheckTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}})
	serve(t, h, "/readyz")
	if remaining := time.Until(deadline); remaining <= 0 || remaining > checkTimeout {
		t.Errorf("check deadline in %v, want within %v", remaining, checkTimeout)
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	waiter := Checker{Name: "a", Check: func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}
	releaser := Checker{Name: "b", Check: func(context.Context) error {
		close(release)
		return nil
	}}

	code, body := serve(t, New(waiter, releaser), "/readyz")
	if code != http.StatusOK {
		t.Errorf("readyz = %d %v, want 200", code, body.Checks)
	}
}
