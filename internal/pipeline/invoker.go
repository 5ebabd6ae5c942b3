package pipeline

import "context"

// Invocation is the normalized input handed to any model implementation.
type Invocation struct {
	JobID          string
	InputURL       string
	Prompt         string
	NegativePrompt string
	// Config carries the model-specific tunables from the active
	// model configuration row.
	Config map[string]any
}

// InvocationResult is a model's output: a transient URL (provider URLs
// expire) plus free-form metadata.
type InvocationResult struct {
	OutputURL string
	Metadata  map[string]any
}

// Invoker is the capability to run one concrete model. Implementations
// live in internal/providers and are registered with the Switchboard at
// process start.
type Invoker interface {
	ModelName() string
	Invoke(ctx context.Context, in Invocation) (InvocationResult, error)
}
