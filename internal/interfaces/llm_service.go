package interfaces

import "context"

// Message represents a single turn in a model conversation
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Generator is the completion contract every pipeline stage builds on.
// Implementations wrap one provider (Gemini, Claude) and own their rate
// limiting and retry behavior; callers just hand over instructions and text.
type Generator interface {
	// Generate produces a completion for the prompt under the given system
	// instruction. The returned string is the raw model text, fences and all.
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)

	// Name identifies the backing provider for logging
	Name() string
}
