package catalog

import (
	"testing"

	"github.com/rs/zerolog"
)

const sampleConfig = `
providers:
  - id: prov_openai
    display_name: OpenAI
    kind: openai
    base_url: https://api.openai.com/v1/
    api_key_env: OPENAI_API_KEY
    sync_models: true
    models:
      - gpt-4o
      - gpt-4o-mini
  - id: prov_ollama
    display_name: Local Ollama
    kind: ollama
    base_url: http://localhost:11434/v1
    models:
      - llama3.1:8b
`

func TestParse(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")

	c, err := Parse([]byte(sampleConfig), zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	snapshot := c.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() length = %d, want 2", len(snapshot))
	}
	if snapshot[0].PublicID != "prov_openai" || snapshot[1].PublicID != "prov_ollama" {
		t.Errorf("Snapshot() order = %s, %s; want configuration order", snapshot[0].PublicID, snapshot[1].PublicID)
	}

	openaiProv, ok := c.Lookup("prov_openai")
	if !ok {
		t.Fatal("Lookup(prov_openai) = not found")
	}
	if openaiProv.APIKey != "sk-test-key" {
		t.Errorf("APIKey = %q, want value resolved from env", openaiProv.APIKey)
	}
	if openaiProv.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", openaiProv.BaseURL)
	}
	if !openaiProv.Available {
		t.Error("freshly loaded provider must start available")
	}

	model, ok := openaiProv.DefaultModel()
	if !ok || model != "gpt-4o" {
		t.Errorf("DefaultModel() = %q, %v; want gpt-4o, true", model, ok)
	}

	if _, ok := c.Lookup("prov_missing"); ok {
		t.Error("Lookup(prov_missing) = found, want not found")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty document", data: "providers: []"},
		{name: "missing id", data: "providers:\n  - display_name: Nameless\n"},
		{name: "duplicate id", data: "providers:\n  - id: prov_a\n  - id: prov_a\n"},
		{name: "malformed yaml", data: "providers: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), zerolog.Nop()); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestCatalog_ReadsReturnCopies(t *testing.T) {
	c, err := Parse([]byte(sampleConfig), zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	prov, _ := c.Lookup("prov_ollama")
	prov.Models[0] = "tampered"
	prov.Available = false

	again, _ := c.Lookup("prov_ollama")
	if again.Models[0] != "llama3.1:8b" || !again.Available {
		t.Error("Lookup() must hand out copies, not shared state")
	}
}

func TestCatalog_SyncBookkeeping(t *testing.T) {
	c, err := Parse([]byte(sampleConfig), zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	targets := c.syncTargets()
	if len(targets) != 1 || targets[0].PublicID != "prov_openai" {
		t.Fatalf("syncTargets() = %+v, want just prov_openai", targets)
	}

	c.markUnavailable("prov_openai")
	prov, _ := c.Lookup("prov_openai")
	if prov.Available {
		t.Error("markUnavailable() did not take effect")
	}
	if len(prov.Models) != 2 {
		t.Error("marking unavailable must keep the configured model list")
	}

	c.setModels("prov_openai", []string{"gpt-5"})
	prov, _ = c.Lookup("prov_openai")
	if !prov.Available {
		t.Error("setModels() must restore availability")
	}
	if len(prov.Models) != 1 || prov.Models[0] != "gpt-5" {
		t.Errorf("Models = %v, want synced list", prov.Models)
	}
	if prov.LastSyncedAt.IsZero() {
		t.Error("setModels() must stamp LastSyncedAt")
	}
}
