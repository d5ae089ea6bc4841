package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"parley-server/chat-api/internal/domain/provider"
)

// Refresher keeps the catalog's model lists in step with what each provider
// actually serves. Providers that did not opt into syncing keep their
// configured lists untouched.
type Refresher struct {
	catalog  *Catalog
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewRefresher creates a model sync loop for the catalog.
func NewRefresher(c *Catalog, interval, timeout time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		catalog:  c,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "model_sync").Logger(),
	}
}

// Run syncs once immediately, then on every tick until the context ends.
func (r *Refresher) Run(ctx context.Context) error {
	r.SyncAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.SyncAll(ctx)
		}
	}
}

// SyncAll refreshes every syncable provider concurrently. A provider that
// fails to answer is marked unavailable; the sweep itself never fails, so one
// dead provider cannot take the loop down.
func (r *Refresher) SyncAll(ctx context.Context) {
	targets := r.catalog.syncTargets()
	if len(targets) == 0 {
		return
	}

	var eg errgroup.Group
	for _, prov := range targets {
		prov := prov
		eg.Go(func() error {
			r.syncProvider(ctx, prov)
			return nil
		})
	}
	_ = eg.Wait()
}

func (r *Refresher) syncProvider(ctx context.Context, prov *provider.Provider) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	clientConfig := openai.DefaultConfig(prov.APIKey)
	if prov.BaseURL != "" {
		clientConfig.BaseURL = prov.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.ListModels(reqCtx)
	if err != nil {
		r.catalog.markUnavailable(prov.PublicID)
		r.logger.Warn().
			Str("provider_id", prov.PublicID).
			Err(err).
			Msg("model sync failed, provider marked unavailable")
		return
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.ID)
	}
	sort.Strings(models)

	r.catalog.setModels(prov.PublicID, models)
	r.logger.Debug().
		Str("provider_id", prov.PublicID).
		Int("models", len(models)).
		Msg("model list refreshed")
}
