package inference

import (
	"context"
	"errors"
	"fmt"

	"parley-server/chat-api/internal/domain/provider"
)

// FailureKind classifies why a generation attempt failed, independent of the
// upstream provider's own status codes.
type FailureKind string

const (
	FailureRateLimited         FailureKind = "rate_limited"
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	FailureTimeout             FailureKind = "timeout"
	FailureInvalidModel        FailureKind = "invalid_model"
)

// Message is one turn of model-facing history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is a completed generation.
type Result struct {
	Content   string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Error is a classified generation failure. It wraps the transport-level error
// so callers can still inspect it, but routing decisions use Kind only.
type Error struct {
	Kind     FailureKind
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s (provider=%s model=%s): %v", e.Kind, e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("inference %s (provider=%s model=%s)", e.Kind, e.Provider, e.Model)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, if it carries one.
func KindOf(err error) (FailureKind, bool) {
	var infErr *Error
	if errors.As(err, &infErr) {
		return infErr.Kind, true
	}
	return "", false
}

// Generator produces one assistant completion for the given history against a
// concrete provider and model. Implementations must return *Error for every
// upstream failure so the engine can record a classified error turn.
type Generator interface {
	Generate(ctx context.Context, prov *provider.Provider, model string, history []Message) (*Result, error)
}
