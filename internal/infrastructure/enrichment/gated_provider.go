package enrichment

import (
	"context"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

// GatedProvider puts a HealthGate in front of a remote product provider.
// Outages surface as domain.ErrProviderDown or domain.ErrSafeMode so the
// use cases can degrade.
type GatedProvider struct {
	provider ports.ProductProvider
	gate     *resilience.HealthGate
}

// NewGatedProvider probes with the provider's own Probe unless cfg sets one.
func NewGatedProvider(provider ports.ProductProvider, cfg resilience.GateConfig) *GatedProvider {
	if cfg.Probe == nil {
		cfg.Probe = provider.Probe
	}
	return &GatedProvider{
		provider: provider,
		gate:     resilience.NewHealthGate(cfg),
	}
}

func (p *GatedProvider) Gate() *resilience.HealthGate {
	return p.gate
}

func (p *GatedProvider) Lookup(ctx context.Context, barcode string) (*domain.Product, error) {
	res := resilience.Call(ctx, p.gate, func(ctx context.Context) (*domain.Product, error) {
		return p.provider.Lookup(ctx, barcode)
	})
	return res.Data, res.Err
}

func (p *GatedProvider) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	res := resilience.Call(ctx, p.gate, func(ctx context.Context) ([]domain.Candidate, error) {
		return p.provider.Search(ctx, query, limit)
	})
	return res.Data, res.Err
}

func (p *GatedProvider) Probe(ctx context.Context) error {
	return p.provider.Probe(ctx)
}
