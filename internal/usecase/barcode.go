package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cartscan/backend/internal/domain"
)

// MaxBatchSize caps the number of barcodes accepted in one batch lookup.
const MaxBatchSize = 100

// barcodePattern covers UPC-A, UPC-E, EAN-8, EAN-13 and GTIN-14. Purely
// syntactic; no checksum verification.
var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

// ValidateBarcode checks barcode syntax and returns the trimmed code. It is
// pure and synchronous: no provider is ever called for a rejected input.
func ValidateBarcode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", fmt.Errorf("%w: barcode is empty", domain.ErrInvalidRequest)
	}
	if !barcodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: barcode %q must be 8-14 digits", domain.ErrInvalidRequest, code)
	}
	return code, nil
}

// ValidateBatch checks a batch payload: non-empty, at most MaxBatchSize
// elements, every element a valid barcode. The first offending code is named
// in the error. Returns the trimmed codes.
func ValidateBatch(raws []string) ([]string, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: barcode list is empty", domain.ErrInvalidRequest)
	}
	if len(raws) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds the limit of %d barcodes", domain.ErrInvalidRequest, len(raws), MaxBatchSize)
	}

	codes := make([]string, 0, len(raws))
	for _, raw := range raws {
		code, err := ValidateBarcode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: batch contains invalid barcode %q", domain.ErrInvalidRequest, raw)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
