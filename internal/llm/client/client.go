package llmclient

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Client is the single generative call the service depends on. Providers
// do not retry; failures are returned unchanged to the caller.
type Client interface {
	Name() string
	Close() error
	GenerateText(ctx context.Context, prompt string) (string, error)
}
