package provider

import (
	"time"
)

// Kind identifies the upstream API family a provider speaks. All kinds here
// expose an OpenAI-compatible chat completion surface.
type Kind string

const (
	KindOpenAI     Kind = "openai"
	KindAnthropic  Kind = "anthropic"
	KindGroq       Kind = "groq"
	KindGemini     Kind = "gemini"
	KindOllama     Kind = "ollama"
	KindOpenRouter Kind = "openrouter"
	KindCustom     Kind = "custom" // any customer-provided OpenAI-compatible endpoint
)

// Provider is a read-only view of one reachable inference backend. The engine
// consumes it for validation and default-model selection only; availability
// transitions are observed, never driven, from here.
type Provider struct {
	PublicID     string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Kind         Kind      `json:"kind"`
	BaseURL      string    `json:"base_url"`
	APIKey       string    `json:"-"` // decrypted in memory, never serialized
	Available    bool      `json:"available"`
	Models       []string  `json:"models"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// DefaultModel returns the first model of the provider's list. Index 0 is the
// contract: callers that omit a model always get the same deterministic pick.
func (p *Provider) DefaultModel() (string, bool) {
	if len(p.Models) == 0 {
		return "", false
	}
	return p.Models[0], true
}

// HasModel reports whether the provider currently exposes the given model.
func (p *Provider) HasModel(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Catalog is the read side of the provider registry.
type Catalog interface {
	// Snapshot returns the current providers in stable (configuration) order.
	Snapshot() []*Provider
	// Lookup finds a provider by its public ID.
	Lookup(publicID string) (*Provider, bool)
}
