package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

func TestSearchFoodsMergesCheapFirst(t *testing.T) {
	catalog := &catalogFake{found: []domain.Candidate{
		{Name: "Crème fraîche", ClassID: "dairy", ProviderRef: "lyf:1"},
		{Name: "Greek yogurt", ClassID: "dairy", ProviderRef: "lyf:2"},
	}}
	provider := &providerFake{found: []domain.Candidate{
		{Name: "creme fraiche", ClassID: "DAIRY", ProviderRef: "LYF:1"},
		{Name: "Skyr", BrandName: "Acme", ProviderRef: "off:777"},
	}}
	uc := NewFoodSearchUseCase(catalog, provider, nil)

	got, err := uc.SearchFoods(context.Background(), " creme ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 merged candidates, got %+v", got)
	}
	if got[0].Name != "Crème fraîche" || got[1].Name != "Greek yogurt" || got[2].Name != "Skyr" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestSearchFoodsCapsResults(t *testing.T) {
	var local, remote []domain.Candidate
	for i := 0; i < 6; i++ {
		local = append(local, domain.Candidate{Name: fmt.Sprintf("local %d", i)})
		remote = append(remote, domain.Candidate{Name: fmt.Sprintf("remote %d", i)})
	}
	uc := NewFoodSearchUseCase(&catalogFake{found: local}, &providerFake{found: remote}, nil)

	got, err := uc.SearchFoods(context.Background(), "food")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 8 || got[0].Name != "local 0" || got[7].Name != "remote 1" {
		t.Fatalf("unexpected capped result %+v", got)
	}
}

func TestSearchFoodsToleratesFailingSource(t *testing.T) {
	catalog := &catalogFake{err: errors.New("pq: connection refused")}
	provider := &providerFake{found: []domain.Candidate{{Name: "Skyr"}}}
	uc := NewFoodSearchUseCase(catalog, provider, nil)

	got, err := uc.SearchFoods(context.Background(), "skyr")
	if err != nil {
		t.Fatalf("source failure must not fail search, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "Skyr" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestSearchFoodsValidatesQueryAndCancellation(t *testing.T) {
	uc := NewFoodSearchUseCase(&catalogFake{}, &providerFake{}, nil)
	if _, err := uc.SearchFoods(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc = NewFoodSearchUseCase(&catalogFake{err: context.Canceled}, &providerFake{searchErr: context.Canceled}, nil)
	if _, err := uc.SearchFoods(ctx, "skyr"); !errors.Is(err, domain.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}
