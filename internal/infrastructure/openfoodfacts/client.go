package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cartscan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every product lookup; a provider that takes longer
// is treated as failed for that call only.
const DefaultTimeout = 10 * time.Second

// Client handles communication with the Open Food Facts API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Open Food Facts client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Open Food Facts asks for at most 100 product queries per minute
	limiter := rate.NewLimiter(rate.Limit(100.0/60.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// productResponse is the upstream envelope: status 0 means unknown barcode.
type productResponse struct {
	Status  int                    `json:"status"`
	Product map[string]interface{} `json:"product"`
}

// FetchByBarcode retrieves one product by barcode. When fields is non-empty,
// only those fields are requested upstream and the result key set is a subset
// of the requested set; absent fields are omitted, never defaulted. A single
// attempt per call, no retries.
func (c *Client) FetchByBarcode(ctx context.Context, barcode string, fields []string) (domain.ProviderResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v2/product/%s", c.baseURL, url.PathEscape(barcode))
	reqURL := endpoint
	if len(fields) > 0 {
		params := url.Values{}
		params.Add("fields", strings.Join(fields, ","))
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[OFF] lookup %s failed - status: %d, body: %s", barcode, resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}

	var parsed productResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
	}

	if parsed.Status == 0 || parsed.Product == nil {
		return nil, domain.ErrProductNotFound
	}

	product := normalizeProduct(parsed.Product)

	if len(fields) > 0 {
		return filterFields(product, fields), nil
	}

	// Full-schema response, re-keyed under the barcode used for the lookup
	product["code"] = barcode
	return product, nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartScan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	return resp, nil
}

// normalizeProduct re-keys upstream oddities onto the field names the rest of
// the system uses. Open Food Facts serves the keyword list as "_keywords".
func normalizeProduct(raw map[string]interface{}) domain.ProviderResult {
	product := make(domain.ProviderResult, len(raw))
	for k, v := range raw {
		product[k] = v
	}

	if kw, ok := product["_keywords"]; ok {
		if _, taken := product["keywords"]; !taken {
			product["keywords"] = kw
		}
		delete(product, "_keywords")
	}

	return product
}

// filterFields restricts a result to exactly the requested field set.
func filterFields(product domain.ProviderResult, fields []string) domain.ProviderResult {
	filtered := make(domain.ProviderResult, len(fields))
	for _, field := range fields {
		if value, ok := product[field]; ok {
			filtered[field] = value
		}
	}
	return filtered
}
