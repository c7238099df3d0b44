// Package determinism provides primitives for guaranteeing deterministic execution.
// Pricing code uses these helpers for hashing, money rounding and ordering so
// that the same inputs always produce bit-identical results.
package determinism

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Canonical encodes v as canonical JSON. encoding/json sorts map keys and
// decimals encode as strings, so equal values always produce equal bytes.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fingerprint hashes the canonical encoding of every part, in order.
// Parts are separated so that ("ab","c") and ("a","bc") differ.
func Fingerprint(namespace string, parts ...any) (string, error) {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	for i, part := range parts {
		data, err := Canonical(part)
		if err != nil {
			return "", fmt.Errorf("fingerprint part %d: %w", i, err)
		}
		h.Write(data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MoneyPlaces is the number of decimal places kept on rounded money
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percent returns base × pct / 100
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// SortSlice sorts a slice in a stable, deterministic manner
func SortSlice[T any](slice []T, less func(a, b T) bool) {
	sort.SliceStable(slice, func(i, j int) bool {
		return less(slice[i], slice[j])
	})
}

// SortedKeys returns the keys of a string-keyed map in lexical order
func SortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
