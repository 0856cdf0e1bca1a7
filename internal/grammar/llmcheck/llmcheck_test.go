package llmcheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/lingoxa/internal/grammar"
	"github.com/MrWong99/lingoxa/internal/grammar/llmcheck"
	"github.com/MrWong99/lingoxa/pkg/provider/llm"
	"github.com/MrWong99/lingoxa/pkg/provider/llm/mock"
)

func TestCheck_SendsUtterance(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"issues": []}`}}
	c := llmcheck.New(p, llmcheck.WithTemperature(0.3))

	issues, err := c.Check(context.Background(), "She go to school.")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("Complete calls = %d, want 1", len(p.CompleteCalls))
	}
	req := p.CompleteCalls[0].Req
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", req.Temperature)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "She go to school." {
		t.Errorf("Messages = %+v", req.Messages)
	}
}

func TestCheck_ParsesIssues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []grammar.Issue
	}{
		{
			name: "plain json",
			content: `{"issues": [
				{"error_word": "go", "suggestion": "goes", "type": "verb"},
				{"error_word": "a apple", "suggestion": "an apple", "type": "article"}
			]}`,
			want: []grammar.Issue{
				{OriginalSentence: "She go to eat a apple.", ErrorWord: "go", Suggestion: "goes", Explanation: grammar.ExplainVerb},
				{OriginalSentence: "She go to eat a apple.", ErrorWord: "a apple", Suggestion: "an apple", Explanation: grammar.ExplainArticle},
			},
		},
		{
			name:    "fenced",
			content: "```json\n{\"issues\": [{\"error_word\": \"go\", \"suggestion\": \"goes\", \"type\": \"other\"}]}\n```",
			want: []grammar.Issue{
				{OriginalSentence: "She go to eat a apple.", ErrorWord: "go", Suggestion: "goes", Explanation: grammar.ExplainGeneric},
			},
		},
		{
			name: "drops invented and case-only entries",
			content: `{"issues": [
				{"error_word": "banana", "suggestion": "bananas", "type": "other"},
				{"error_word": "she", "suggestion": "She", "type": "other"},
				{"error_word": "", "suggestion": "x", "type": "other"}
			]}`,
			want: []grammar.Issue{},
		},
		{
			name:    "unparseable",
			content: "Looks fine to me!",
			want:    []grammar.Issue{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: tc.content}}
			got, err := llmcheck.New(p).Check(context.Background(), "She go to eat a apple.")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got == nil {
				t.Fatal("Check returned nil slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d issues, want %d: %+v", len(got), len(tc.want), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("issue %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestCheck_ProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("rate limited")
	c := llmcheck.New(&mock.Provider{CompleteErr: boom})
	if _, err := c.Check(context.Background(), "text"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped provider error", err)
	}
}

func TestCheck_BlankSkipsProvider(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	if _, err := llmcheck.New(p).Check(context.Background(), " "); err != nil {
		t.Fatal(err)
	}
	if len(p.CompleteCalls) != 0 {
		t.Error("provider called for blank text")
	}
}
