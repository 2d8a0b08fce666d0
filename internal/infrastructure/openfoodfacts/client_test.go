package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cartscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://api.example.com", 0)

	assert.NotNil(t, client)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
}

func TestFetchByBarcode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003", r.URL.Path)
		assert.Equal(t, "product_name,quantity", r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"product":{"product_name":"Nutella","quantity":"400 g"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	result, err := client.FetchByBarcode(context.Background(), "3017620422003", []string{"product_name", "quantity"})

	require.NoError(t, err)
	assert.Equal(t, "Nutella", result["product_name"])
	assert.Equal(t, "400 g", result["quantity"])
}

func TestFetchByBarcode_FieldFiltering(t *testing.T) {
	// Upstream returns more fields than requested; the result key set must be
	// a subset of the requested fields
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"product":{"product_name":"Nutella","brands":"Ferrero","nutriscore_grade":"e"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	requested := []string{"product_name", "serving_quantity"}
	result, err := client.FetchByBarcode(context.Background(), "3017620422003", requested)

	require.NoError(t, err)
	for key := range result {
		assert.Contains(t, requested, key)
	}
	assert.Equal(t, "Nutella", result["product_name"])
	// serving_quantity was not returned upstream, so it must be absent, not defaulted
	_, present := result["serving_quantity"]
	assert.False(t, present)
}

func TestFetchByBarcode_FullSchemaWhenNoFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"product":{"product_name":"Nutella","brands":"Ferrero"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	result, err := client.FetchByBarcode(context.Background(), "3017620422003", nil)

	require.NoError(t, err)
	assert.Equal(t, "Nutella", result["product_name"])
	assert.Equal(t, "Ferrero", result["brands"])
	assert.Equal(t, "3017620422003", result["code"])
}

func TestFetchByBarcode_KeywordsNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"product":{"product_name":"Nutella","_keywords":["chocolate","spread"]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	result, err := client.FetchByBarcode(context.Background(), "3017620422003", []string{"product_name", "keywords"})

	require.NoError(t, err)
	assert.Equal(t, []interface{}{"chocolate", "spread"}, result["keywords"])
}

func TestFetchByBarcode_StatusZeroIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	result, err := client.FetchByBarcode(context.Background(), "00000000", nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestFetchByBarcode_HTTP404IsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.FetchByBarcode(context.Background(), "00000000", nil)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestFetchByBarcode_ServerErrorIsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.FetchByBarcode(context.Background(), "3017620422003", nil)

	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestFetchByBarcode_TimeoutIsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 50*time.Millisecond)

	_, err := client.FetchByBarcode(context.Background(), "3017620422003", nil)

	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}
