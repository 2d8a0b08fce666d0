package upcitemdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cartscan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every request; same policy as the food provider.
const DefaultTimeout = 10 * time.Second

// DefaultPageSize is applied when a search caller passes no page size.
const DefaultPageSize = 20

// Client handles communication with the UPCitemdb API. Without an API key it
// runs against the rate-limited trial tier.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
}

// NewClient creates a new UPCitemdb client. apiKey may be empty.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Trial tier allows 100 lookups per day; the paid tiers are per-month.
	// A gentle client-side limit keeps bursts from burning the daily budget.
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: limiter,
	}
}

// lookupResponse is the upstream envelope for both lookup and search.
type lookupResponse struct {
	Code    string                   `json:"code"`
	Total   int                      `json:"total"`
	Offset  int                      `json:"offset"`
	Message string                   `json:"message"`
	Items   []map[string]interface{} `json:"items"`
}

// Lookup retrieves one product by UPC/EAN barcode. An empty upstream item
// list is a not-found; HTTP 429 is surfaced as ErrRateLimited so callers can
// tell capacity exhaustion apart from a broken integration. Field-subset
// semantics match the food provider. A single attempt per call, no retries.
func (c *Client) Lookup(ctx context.Context, barcode string, fields []string) (domain.ProviderResult, error) {
	params := url.Values{}
	params.Add("upc", barcode)
	reqURL := fmt.Sprintf("%s/lookup?%s", c.baseURL, params.Encode())

	parsed, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if len(parsed.Items) == 0 {
		return nil, domain.ErrProductNotFound
	}

	item := normalizeItem(parsed.Items[0])

	if len(fields) > 0 {
		return filterFields(item, fields), nil
	}
	return item, nil
}

// Search runs a paged keyword search. Pages are 1-based; pageSize defaults to
// DefaultPageSize and is capped at 50 (the upstream page limit).
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*domain.RetailSearchPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > 50 {
		pageSize = 50
	}

	params := url.Values{}
	params.Add("s", query)
	params.Add("offset", strconv.Itoa((page-1)*pageSize))
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	parsed, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ProviderResult, 0, pageSize)
	for _, raw := range parsed.Items {
		if len(items) == pageSize {
			break
		}
		items = append(items, normalizeItem(raw))
	}

	return &domain.RetailSearchPage{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    parsed.Total,
	}, nil
}

// doRequest executes a GET against the provider and decodes the shared
// response envelope, mapping upstream failure modes to domain errors.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*lookupResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartScan/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Printf("[UPC] rate limited by upstream: %s", reqURL)
		return nil, fmt.Errorf("%w: upstream returned 429", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[UPC] request failed - status: %d, body: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
	}

	return &parsed, nil
}

// normalizeItem re-keys an upstream item onto the field names the rest of the
// system uses: UPCitemdb calls the product description "title".
func normalizeItem(raw map[string]interface{}) domain.ProviderResult {
	item := make(domain.ProviderResult, len(raw))
	for k, v := range raw {
		item[k] = v
	}

	if title, ok := item["title"]; ok {
		if _, taken := item["description"]; !taken {
			item["description"] = title
		}
		delete(item, "title")
	}

	return item
}

// filterFields restricts a result to exactly the requested field set.
func filterFields(item domain.ProviderResult, fields []string) domain.ProviderResult {
	filtered := make(domain.ProviderResult, len(fields))
	for _, field := range fields {
		if value, ok := item[field]; ok {
			filtered[field] = value
		}
	}
	return filtered
}
