package domain

import (
	"context"
	"time"
)

// FoodProvider defines the interface for the food product database
// (Open Food Facts)
type FoodProvider interface {
	// FetchByBarcode looks up one product by barcode. When fields is
	// non-empty, the result is restricted to exactly that field set.
	FetchByBarcode(ctx context.Context, barcode string, fields []string) (ProviderResult, error)
}

// RetailProvider defines the interface for the retail product database
// (UPCitemdb)
type RetailProvider interface {
	// Lookup looks up one product by UPC/EAN barcode, with the same
	// field-subset contract as FoodProvider.FetchByBarcode.
	Lookup(ctx context.Context, barcode string, fields []string) (ProviderResult, error)

	// Search runs a paged keyword search against the provider.
	Search(ctx context.Context, query string, page, pageSize int) (*RetailSearchPage, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
