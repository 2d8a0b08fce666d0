package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when no provider has a product for a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrRateLimited is returned when an upstream provider reports HTTP 429
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstreamFailure is returned when a provider request fails for any reason
	// other than a clean not-found: network error, timeout, non-2xx response
	ErrUpstreamFailure = errors.New("upstream provider request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
