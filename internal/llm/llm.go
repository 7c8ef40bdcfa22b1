// Package llm defines the provider abstraction shared by the similarity
// and relevance oracles: a single-prompt, text-in/text-out completion
// against a remote, fallible, rate-limited model.
package llm

import "context"

// Provider is the interface for any LLM backend.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Request is a single completion call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response is the model output for one completion call. Text is the
// concatenation of all text blocks the model produced; no format beyond
// that is guaranteed, callers parse it defensively.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage is the token usage reported by the provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
