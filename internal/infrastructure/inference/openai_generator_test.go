package inference

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	domain "parley-server/chat-api/internal/domain/inference"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.FailureKind
	}{
		{
			name: "429 maps to rate limited",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			want: domain.FailureRateLimited,
		},
		{
			name: "404 maps to invalid model",
			err:  &openai.APIError{HTTPStatusCode: http.StatusNotFound},
			want: domain.FailureInvalidModel,
		},
		{
			name: "400 maps to invalid model",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadRequest},
			want: domain.FailureInvalidModel,
		},
		{
			name: "500 maps to provider unavailable",
			err:  &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			want: domain.FailureProviderUnavailable,
		},
		{
			name: "deadline exceeded maps to timeout",
			err:  context.DeadlineExceeded,
			want: domain.FailureTimeout,
		},
		{
			name: "cancellation maps to timeout",
			err:  context.Canceled,
			want: domain.FailureTimeout,
		},
		{
			name: "plain transport error maps to provider unavailable",
			err:  errors.New("connection refused"),
			want: domain.FailureProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify("prov_x", "model-x-1", tt.err)
			if classified.Kind != tt.want {
				t.Errorf("classify() kind = %s, want %s", classified.Kind, tt.want)
			}
			if classified.Provider != "prov_x" || classified.Model != "model-x-1" {
				t.Errorf("classify() provenance = %s/%s", classified.Provider, classified.Model)
			}

			kind, ok := domain.KindOf(classified)
			if !ok || kind != tt.want {
				t.Errorf("KindOf() = %s, %v; want %s, true", kind, ok, tt.want)
			}
		})
	}
}
