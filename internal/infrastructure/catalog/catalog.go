package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"parley-server/chat-api/internal/domain/provider"
)

// providerDocument is the on-disk shape of the provider bootstrap file.
type providerDocument struct {
	Providers []providerEntry `yaml:"providers"`
}

type providerEntry struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Kind        string   `yaml:"kind"`
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Models      []string `yaml:"models"`
	SyncModels  bool     `yaml:"sync_models"`
}

// Catalog is the provider registry. Reads hand out copies, so a model sync
// running in the background can never race a request that is iterating a
// snapshot.
type Catalog struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	order     []string
	providers map[string]*provider.Provider
	syncable  map[string]bool
}

var _ provider.Catalog = (*Catalog)(nil)

// Load reads and validates the provider bootstrap file.
func Load(path string, logger zerolog.Logger) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("provider config path is empty")
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read provider config %q: %w", cleanPath, err)
	}
	logger.Info().Str("path", cleanPath).Msg("loading provider config file")

	return Parse(data, logger)
}

// Parse builds a catalog from raw YAML.
func Parse(data []byte, logger zerolog.Logger) (*Catalog, error) {
	var doc providerDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse provider config: %w", err)
	}
	if len(doc.Providers) == 0 {
		return nil, fmt.Errorf("provider config has no providers defined")
	}

	c := &Catalog{
		logger:    logger.With().Str("component", "provider_catalog").Logger(),
		providers: make(map[string]*provider.Provider),
		syncable:  make(map[string]bool),
	}

	for idx, entry := range doc.Providers {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("providers[%d]: id is required", idx)
		}
		if _, dup := c.providers[id]; dup {
			return nil, fmt.Errorf("providers[%d]: duplicate provider id %q", idx, id)
		}

		apiKey := entry.APIKey
		if entry.APIKeyEnv != "" {
			apiKey = os.Getenv(entry.APIKeyEnv)
		}

		kind := provider.Kind(strings.TrimSpace(entry.Kind))
		if kind == "" {
			kind = provider.KindCustom
		}

		c.order = append(c.order, id)
		c.syncable[id] = entry.SyncModels
		c.providers[id] = &provider.Provider{
			PublicID:    id,
			DisplayName: entry.DisplayName,
			Kind:        kind,
			BaseURL:     strings.TrimRight(entry.BaseURL, "/"),
			APIKey:      apiKey,
			Available:   true,
			Models:      append([]string(nil), entry.Models...),
		}
	}

	return c, nil
}

// Snapshot returns the providers in configuration order.
func (c *Catalog) Snapshot() []*provider.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*provider.Provider, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyProvider(c.providers[id]))
	}
	return out
}

// Lookup finds a provider by its public ID.
func (c *Catalog) Lookup(publicID string) (*provider.Provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prov, ok := c.providers[publicID]
	if !ok {
		return nil, false
	}
	return copyProvider(prov), true
}

// setModels records a successful model sync for a provider.
func (c *Catalog) setModels(publicID string, models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prov, ok := c.providers[publicID]
	if !ok {
		return
	}
	prov.Models = append([]string(nil), models...)
	prov.Available = true
	prov.LastSyncedAt = time.Now()
}

// markUnavailable flags a provider after a failed sync. Its model list is
// kept so availability can flip back without losing configuration.
func (c *Catalog) markUnavailable(publicID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prov, ok := c.providers[publicID]; ok {
		prov.Available = false
	}
}

// syncTargets returns the providers that opted into model syncing.
func (c *Catalog) syncTargets() []*provider.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*provider.Provider
	for _, id := range c.order {
		if c.syncable[id] {
			out = append(out, copyProvider(c.providers[id]))
		}
	}
	return out
}

func copyProvider(p *provider.Provider) *provider.Provider {
	dup := *p
	dup.Models = append([]string(nil), p.Models...)
	return &dup
}
