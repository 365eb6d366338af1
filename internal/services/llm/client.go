package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is matched by every provider or network failure.
var ErrUnavailable = errors.New("llm unavailable")

// UnavailableError wraps a provider or network failure. Callers surface it unmodified;
// nothing in this package retries.
type UnavailableError struct {
	Provider string
	Cause    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.Provider, e.Cause)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Cause}
}

// Client sends a prompt, plus optional context, to a text-generation model and
// returns the raw reply text.
type Client interface {
	Generate(ctx context.Context, prompt, contextText string) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt, contextText string) (string, error)

func (f ClientFunc) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	return f(ctx, prompt, contextText)
}
