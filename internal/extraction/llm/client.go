package llm

import "context"

// Client defines the interface for the language-model inference server.
type Client interface {
	// Complete sends a prompt and blocks until the full completion arrives.
	// Inference on local models can take tens of seconds.
	Complete(ctx context.Context, prompt string) (string, error)

	// Available reports whether the inference server is reachable
	Available(ctx context.Context) bool

	// Model returns the configured model name for logging and health output
	Model() string
}
