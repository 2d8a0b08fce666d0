package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cartscan/backend/internal/domain"
)

// Curated per-provider field subsets requested on every combined lookup.
// Keeping these fixed minimizes upstream payload and makes the merge
// deterministic regardless of arrival order.
var (
	foodFields = []string{
		"product_name",
		"quantity",
		"product_quantity",
		"product_quantity_unit",
		"serving_quantity",
		"serving_quantity_unit",
		"keywords",
	}

	retailFields = []string{
		"description",
		"brand",
		"images",
	}
)

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	CacheTTL time.Duration
}

// LookupService coordinates barcode lookups across the two product
// providers, merging their results under a partial-failure policy: a single
// provider failing never fails the combined lookup, only both failing does.
type LookupService struct {
	food     domain.FoodProvider
	retail   domain.RetailProvider
	cache    domain.CacheRepository
	cacheTTL time.Duration

	mu       sync.Mutex
	inflight map[string]*inflightLookup
}

// inflightLookup collapses concurrent combined lookups for the same barcode
// onto one upstream fan-out; waiters share the settled result.
type inflightLookup struct {
	done   chan struct{}
	result *domain.CombinedResult
	err    error
}

// NewLookupService creates a new lookup service. cache may be nil, in which
// case every lookup goes straight to the providers and no request collapsing
// happens.
func NewLookupService(
	food domain.FoodProvider,
	retail domain.RetailProvider,
	cache domain.CacheRepository,
	config LookupServiceConfig,
) *LookupService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &LookupService{
		food:     food,
		retail:   retail,
		cache:    cache,
		cacheTTL: cacheTTL,
		inflight: make(map[string]*inflightLookup),
	}
}

// GetCombined looks up one barcode on both providers concurrently and merges
// whatever came back. Fails with ErrProductNotFound only when both providers
// failed; ErrInvalidRequest is returned before any network call for bad
// syntax.
func (s *LookupService) GetCombined(ctx context.Context, rawBarcode string) (*domain.CombinedResult, error) {
	barcode, err := ValidateBarcode(rawBarcode)
	if err != nil {
		return nil, err
	}

	if s.cache == nil {
		return s.fetchCombined(ctx, barcode)
	}
	return s.cachedCombined(ctx, barcode)
}

// fetchCombined runs the two provider calls concurrently and joins on both,
// never short-circuiting: one provider's failure cannot cancel or starve the
// other's in-flight call. Per-provider failures are logged and recovered
// locally.
func (s *LookupService) fetchCombined(ctx context.Context, barcode string) (*domain.CombinedResult, error) {
	var (
		wg         sync.WaitGroup
		foodData   domain.ProviderResult
		retailData domain.ProviderResult
		foodErr    error
		retailErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		foodData, foodErr = s.food.FetchByBarcode(ctx, barcode, foodFields)
	}()
	go func() {
		defer wg.Done()
		retailData, retailErr = s.retail.Lookup(ctx, barcode, retailFields)
	}()
	wg.Wait()

	if foodErr != nil {
		log.Printf("[LOOKUP] food provider failed for %s: %v", barcode, foodErr)
	}
	if retailErr != nil {
		log.Printf("[LOOKUP] retail provider failed for %s: %v", barcode, retailErr)
	}

	if foodErr != nil && retailErr != nil {
		return nil, fmt.Errorf("%w: barcode %s not found in any source", domain.ErrProductNotFound, barcode)
	}

	result := &domain.CombinedResult{
		Barcode: barcode,
		Sources: domain.Sources{
			FoodProvider:   foodErr == nil,
			RetailProvider: retailErr == nil,
		},
	}
	if foodErr == nil {
		result.FoodData = foodData
	}
	if retailErr == nil {
		result.RetailData = retailData
	}

	return result, nil
}

// cachedCombined is the cache-aside path with single-flight collapsing: at
// most one upstream fan-out runs per barcode at any moment, and concurrent
// callers for the same barcode wait on it instead of issuing their own.
func (s *LookupService) cachedCombined(ctx context.Context, barcode string) (*domain.CombinedResult, error) {
	key := cacheKey(barcode)

	if value, err := s.cache.Get(ctx, key); err == nil {
		if result, ok := value.(*domain.CombinedResult); ok {
			return result, nil
		}
	}

	s.mu.Lock()
	if call, ok := s.inflight[barcode]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.result, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightLookup{done: make(chan struct{})}
	s.inflight[barcode] = call
	s.mu.Unlock()

	result, err := s.fetchCombined(ctx, barcode)

	if err == nil {
		if cacheErr := s.cache.Set(ctx, key, result, s.cacheTTL); cacheErr != nil {
			log.Printf("[LOOKUP] failed to cache %s: %v", barcode, cacheErr)
		}
	}

	s.mu.Lock()
	call.result = result
	call.err = err
	delete(s.inflight, barcode)
	s.mu.Unlock()
	close(call.done)

	return result, err
}

// GetCombinedBatch runs the combined lookup concurrently for every barcode in
// the batch and keeps only the successes; barcodes that failed on both
// providers are dropped from Items. Callers detect drops by comparing
// Requested against Total. Item order is not guaranteed.
func (s *LookupService) GetCombinedBatch(ctx context.Context, rawBarcodes []string) (*domain.BatchResult, error) {
	barcodes, err := ValidateBatch(rawBarcodes)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items = make([]domain.CombinedResult, 0, len(barcodes))
	)

	for _, barcode := range barcodes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := s.GetCombined(ctx, barcode)
			if err != nil {
				log.Printf("[LOOKUP] dropping %s from batch: %v", barcode, err)
				return
			}

			mu.Lock()
			items = append(items, *result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return &domain.BatchResult{
		Items:     items,
		Total:     len(items),
		Requested: len(rawBarcodes),
	}, nil
}

// GetFoodOnly is a raw pass-through to the food provider for callers who want
// its unmerged schema; provider errors propagate unmodified.
func (s *LookupService) GetFoodOnly(ctx context.Context, rawBarcode string, fields []string) (domain.ProviderResult, error) {
	barcode, err := ValidateBarcode(rawBarcode)
	if err != nil {
		return nil, err
	}
	return s.food.FetchByBarcode(ctx, barcode, fields)
}

// GetRetailOnly is the retail counterpart of GetFoodOnly.
func (s *LookupService) GetRetailOnly(ctx context.Context, rawBarcode string, fields []string) (domain.ProviderResult, error) {
	barcode, err := ValidateBarcode(rawBarcode)
	if err != nil {
		return nil, err
	}
	return s.retail.Lookup(ctx, barcode, fields)
}

// SearchRetail is a paged keyword-search pass-through to the retail provider.
func (s *LookupService) SearchRetail(ctx context.Context, query string, page, pageSize int) (*domain.RetailSearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", domain.ErrInvalidRequest)
	}
	return s.retail.Search(ctx, query, page, pageSize)
}

// cacheKey builds the cache key for a combined lookup.
func cacheKey(barcode string) string {
	return "combined:" + barcode
}
