package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/nutrition-pipeline/internal/core/candidates"
	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
)

type FoodSearchUseCase struct {
	catalog  ports.FoodCatalog
	provider ports.ProductProvider
	logger   *slog.Logger
}

func NewFoodSearchUseCase(catalog ports.FoodCatalog, provider ports.ProductProvider, logger *slog.Logger) *FoodSearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &FoodSearchUseCase{
		catalog:  catalog,
		provider: provider,
		logger:   logger,
	}
}

// SearchFoods asks the local catalog and the remote provider concurrently
// and merges cheap results first. A failing source only shortens the list.
func (uc *FoodSearchUseCase) SearchFoods(ctx context.Context, query string) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search foods", fmt.Errorf("query is required"))
	}

	var cheap, edge []domain.Candidate
	g, gctx := errgroup.WithContext(ctx)
	if uc.catalog != nil {
		g.Go(func() error {
			found, err := uc.catalog.SearchFoods(gctx, query, candidates.MaxMerged)
			if err != nil {
				return uc.sourceFailed(ctx, "catalog", err)
			}
			cheap = found
			return nil
		})
	}
	if uc.provider != nil {
		g.Go(func() error {
			found, err := uc.provider.Search(gctx, query, candidates.MaxMerged)
			if err != nil {
				return uc.sourceFailed(ctx, "provider", err)
			}
			edge = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates.Merge(cheap, edge), nil
}

// sourceFailed logs a source failure and only propagates cancellation of
// the caller's context.
func (uc *FoodSearchUseCase) sourceFailed(ctx context.Context, source string, err error) error {
	if ctx.Err() != nil {
		return asCanceled("search foods", err)
	}
	uc.logger.Warn("food_search_source_failed", "source", source, "error", err)
	return nil
}
