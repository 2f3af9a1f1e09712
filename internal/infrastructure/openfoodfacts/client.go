package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	userAgent       = "nutrition-pipeline/1.0"
	productFields   = "code,product_name,product_name_en,generic_name,brands,nutriments,ingredients_text,ingredients_text_en,serving_size,serving_quantity,serving_quantity_unit"
	searchFields    = "code,product_name,product_name_en,brands,categories_tags"
)

// Client reads products from the Open Food Facts API. Successful barcode
// lookups are cached in memory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	products   *cache.Cache
}

func New(baseURL string, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		products:   cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (c *Client) Lookup(ctx context.Context, barcode string) (*domain.Product, error) {
	if cached, ok := c.products.Get(barcode); ok {
		product := *cached.(*domain.Product)
		return &product, nil
	}

	var payload productResponse
	path := "/api/v2/product/" + url.PathEscape(barcode) + ".json?fields=" + url.QueryEscape(productFields)
	found, err := c.getJSON(ctx, path, "product", &payload)
	if err != nil {
		return nil, err
	}
	if !found || payload.Status == 0 || payload.Product == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "openfoodfacts lookup", fmt.Errorf("barcode %s not found", barcode))
	}

	product := payload.Product.toDomain(barcode)
	c.products.Set(barcode, product, cache.DefaultExpiration)
	out := *product
	return &out, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		limit = 8
	}
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(limit))
	params.Set("fields", searchFields)

	var payload searchResponse
	if _, err := c.getJSON(ctx, "/cgi/search.pl?"+params.Encode(), "search", &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(payload.Products))
	for _, p := range payload.Products {
		name := p.name()
		if name == "" {
			continue
		}
		candidate := domain.Candidate{
			Name:      name,
			BrandName: firstBrand(p.Brands),
		}
		if p.Code != "" {
			candidate.ProviderRef = "off:" + p.Code
		}
		if len(p.CategoriesTags) > 0 {
			candidate.ClassID = p.CategoriesTags[len(p.CategoriesTags)-1]
		}
		out = append(out, candidate)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Probe treats any answer below 500 as a live provider.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openfoodfacts probe request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return resilience.NewHTTPStatusError("openfoodfacts", "probe", resp)
	}
	return nil
}

// getJSON reports found=false for a 404 so lookups can map it to ErrNotFound.
func (c *Client) getJSON(ctx context.Context, path, operation string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("openfoodfacts %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, resilience.NewHTTPStatusError("openfoodfacts", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return true, nil
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}
