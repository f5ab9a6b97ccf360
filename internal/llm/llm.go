package llm

import "context"

// Request is one chat-style completion: a system message, a user message
// and decoding limits.
type Request struct {
	System      string
	User        string
	Model       string // empty selects the client default
	MaxTokens   int
	Temperature float64

	// Schema, when set, asks the service for strict JSON output.
	Schema *Schema
}

// Schema is a named JSON schema for structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Completer is the only capability the analysis packages need from the
// completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
