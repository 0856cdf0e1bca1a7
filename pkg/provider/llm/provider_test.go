package llm_test

import (
	"testing"

	"github.com/MrWong99/lingoxa/pkg/provider/llm"
)

func TestCompletionRequest_SystemText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    llm.CompletionRequest
		native bool
		want   string
	}{
		{name: "plain", req: llm.CompletionRequest{SystemPrompt: "Be brief."}, want: "Be brief."},
		{name: "json native", req: llm.CompletionRequest{SystemPrompt: "Be brief.", JSON: true}, native: true, want: "Be brief."},
		{name: "json prompted", req: llm.CompletionRequest{SystemPrompt: "Be brief.", JSON: true}, want: "Be brief.\n\n" + llm.JSONInstruction},
		{name: "json without prompt", req: llm.CompletionRequest{JSON: true}, want: llm.JSONInstruction},
		{name: "empty", req: llm.CompletionRequest{}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.req.SystemText(tc.native); got != tc.want {
				t.Errorf("SystemText(%v) = %q, want %q", tc.native, got, tc.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	if n := llm.EstimateTokens(nil); n != 0 {
		t.Errorf("EstimateTokens(nil) = %d, want 0", n)
	}
	// "think" is 5 chars: 2 tokens of text plus 4 of overhead.
	if n := llm.EstimateTokens([]llm.Message{{Role: llm.RoleUser, Content: "think"}}); n != 6 {
		t.Errorf("EstimateTokens = %d, want 6", n)
	}
}
