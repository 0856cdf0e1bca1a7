package llmg2p_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
	"github.com/MrWong99/lingoxa/pkg/provider/g2p/llmg2p"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	llmmock "github.com/MrWong99/lingoxa/pkg/provider/llm/mock"
)

func TestPhonemize(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "TH IH1 NG K\n"}}
	g, err := llmg2p.New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := g.Phonemize(context.Background(), "think")
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if want := []string{"TH", "IH1", "NG", "K"}; !slices.Equal(got, want) {
		t.Errorf("Phonemize = %q, want %q", got, want)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(calls))
	}
	req := calls[0].Req
	if req.SystemPrompt == "" || len(req.Messages) != 1 || req.Messages[0].Content != "think" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestPhonemize_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	g, _ := llmg2p.New(&llmmock.Provider{CompleteErr: boom})
	if _, err := g.Phonemize(context.Background(), "cat"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}

	g, _ = llmg2p.New(&llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "No idea."}})
	if _, err := g.Phonemize(context.Background(), "cat"); !errors.Is(err, g2p.ErrNoPhonemes) {
		t.Errorf("err = %v, want ErrNoPhonemes", err)
	}

	if _, err := llmg2p.New(nil); err == nil {
		t.Error("New(nil) returned nil error")
	}
}
