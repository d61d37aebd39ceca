package ai

import "context"

// GenerateRequest is one non-streaming generation call.
// Images carries base64-encoded image bytes for vision models.
type GenerateRequest struct {
	Model  string
	Prompt string
	Images []string
}

// Provider is a generative inference backend bound to a default model.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
