// Package models defines the ledger's domain entities and their document
// store codecs. Monetary values use shopspring decimals end to end; floats
// never enter the domain.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// stringField extracts a required string field from a document field map.
func stringField(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, raw)
	}
	return s, nil
}

// decimalField extracts a decimal field. Decimals are stored as strings, but
// documents written by other clients may carry JSON numbers, so float64 is
// accepted too.
func decimalField(fields map[string]any, key string) (decimal.Decimal, error) {
	raw, ok := fields[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing field %q", key)
	}
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("field %q: expected decimal string, got %T", key, raw)
	}
}
