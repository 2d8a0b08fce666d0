package domain

// ProviderResult is the raw field map one provider returned for one barcode.
// A missing key means the provider did not return that field; an empty value
// means it returned the field empty. The two cases are never conflated.
type ProviderResult map[string]interface{}

// Sources records which providers contributed data to a combined lookup.
type Sources struct {
	FoodProvider   bool `json:"foodProvider"`
	RetailProvider bool `json:"retailProvider"`
}

// CombinedResult is the unified response for one barcode. FoodData and
// RetailData are each present iff the corresponding provider succeeded;
// at least one is always present on a returned result.
type CombinedResult struct {
	Barcode    string         `json:"barcode"`
	FoodData   ProviderResult `json:"foodData,omitempty"`
	RetailData ProviderResult `json:"retailData,omitempty"`
	Sources    Sources        `json:"sources"`
}

// BatchResult is the response for a batch lookup. Items holds only the
// barcodes for which at least one provider succeeded; barcodes that failed
// on both providers are dropped. Item order is not guaranteed to match the
// input order.
type BatchResult struct {
	Items     []CombinedResult `json:"items"`
	Total     int              `json:"total"`
	Requested int              `json:"requested"`
}

// RetailSearchPage is one page of raw keyword-search results from the
// retail provider.
type RetailSearchPage struct {
	Items    []ProviderResult `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int              `json:"total"`
}
