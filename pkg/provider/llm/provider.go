// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o, Anthropic
// Claude, or a local Ollama instance) and exposes a uniform completion call. The
// practice server uses it for conversational replies, intent classification,
// grammar checking, and grapheme-to-phoneme conversion without coupling to any
// specific SDK.
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// Conversation roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in an LLM conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is typically
	// from the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero means
	// use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is an optional instruction injected before the conversation
	// history as a "system"-role message.
	SystemPrompt string

	// JSON asks for a reply that is a single JSON object. Backends without a
	// native JSON mode add [JSONInstruction] to the system prompt instead.
	JSON bool
}

// JSONInstruction is appended to the system prompt of JSON requests by
// backends that cannot constrain the response format themselves.
const JSONInstruction = "Reply with one JSON object and nothing else."

// SystemText returns the system prompt to send for req, including
// [JSONInstruction] when the backend has no native JSON mode.
func (req CompletionRequest) SystemText(nativeJSON bool) string {
	if !req.JSON || nativeJSON {
		return req.SystemPrompt
	}
	if req.SystemPrompt == "" {
		return JSONInstruction
	}
	return req.SystemPrompt + "\n\n" + JSONInstruction
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Each method should propagate context cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the number of tokens that the given message list would
	// consume in the model's context window. Used to trim dialogue history before
	// sending a request. The result need not be exact but should not undercount.
	CountTokens(messages []Message) (int, error)
}

// EstimateTokens is the shared ~4 characters per token approximation used by
// providers without a local tokenizer. Each message adds 4 tokens of overhead.
func EstimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += (len(m.Content) + 3) / 4
		total += 4
	}
	return total
}
