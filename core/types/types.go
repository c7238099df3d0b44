// Package types defines the value types shared by every stage of the
// quotation engine. Values are plain data: the data-access boundary builds
// them once and the engine never mutates them.
package types

import (
	"strings"
	"time"
)

// CategoryCode identifies a passenger category ("adult", "child", "guide").
type CategoryCode string

// NormalizeCode lowercases and trims a category code
func NormalizeCode(code string) CategoryCode {
	return CategoryCode(strings.ToLower(strings.TrimSpace(code)))
}

// AllCategories is the wildcard accepted in category lists
const AllCategories CategoryCode = "all"

// ParseCategoryList splits a comma-separated list of category codes.
// Empty entries are dropped and duplicates keep their first position.
func ParseCategoryList(list string) []CategoryCode {
	var out []CategoryCode
	seen := make(map[CategoryCode]bool)
	for _, part := range strings.Split(list, ",") {
		code := NormalizeCode(part)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// IsWildcard reports whether a category list selects every category
func IsWildcard(codes []CategoryCode) bool {
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if c == AllCategories {
			return true
		}
	}
	return false
}

// Date builds a UTC calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDate drops the clock part of t, keeping its calendar date
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return Date(y, m, d)
}
