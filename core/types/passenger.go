// Package types - Passenger categories and compositions
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GroupKind classifies a passenger category
type GroupKind string

const (
	GroupTourist GroupKind = "tourist"
	GroupStaff   GroupKind = "staff"
	GroupLeader  GroupKind = "leader"
)

// Valid reports whether the group kind is known
func (g GroupKind) Valid() bool {
	switch g {
	case GroupTourist, GroupStaff, GroupLeader:
		return true
	}
	return false
}

// OccupantRole is how a person counts against room occupancy limits
type OccupantRole string

const (
	OccupantAdult OccupantRole = "adult"
	OccupantChild OccupantRole = "child"
)

// childAgeLimit is the first age that no longer counts as a child in rooms
const childAgeLimit = 18

// PassengerCategory describes one kind of traveler
type PassengerCategory struct {
	Code  CategoryCode `json:"code"`
	Label string       `json:"label"`
	Group GroupKind    `json:"group"`

	MinAge *int `json:"min_age,omitempty"`
	MaxAge *int `json:"max_age,omitempty"`

	// CountsForPricing excludes e.g. a free tour leader from tiers, ratios and per-person figures
	CountsForPricing bool `json:"counts_for_pricing"`

	// RequiresLodging makes a staff or leader category take part in room allocation
	RequiresLodging bool `json:"requires_lodging,omitempty"`

	// Role overrides the occupant role derived from the age bounds
	Role OccupantRole `json:"role,omitempty"`
}

// Lodged reports whether people of this category need a room
func (c PassengerCategory) Lodged() bool {
	return c.Group == GroupTourist || c.RequiresLodging
}

// OccupantRole returns how this category counts in a room
func (c PassengerCategory) OccupantRole() OccupantRole {
	if c.Role != "" {
		return c.Role
	}
	if c.Group == GroupTourist && c.MaxAge != nil && *c.MaxAge < childAgeLimit {
		return OccupantChild
	}
	return OccupantAdult
}

// Catalog is the tenant's passenger category catalog
type Catalog struct {
	categories map[CategoryCode]PassengerCategory
	order      []CategoryCode
}

// NewCatalog builds a catalog. Duplicate codes are rejected.
func NewCatalog(categories ...PassengerCategory) (*Catalog, error) {
	c := &Catalog{categories: make(map[CategoryCode]PassengerCategory, len(categories))}
	for _, cat := range categories {
		code := NormalizeCode(string(cat.Code))
		if code == "" {
			return nil, fmt.Errorf("passenger category without code")
		}
		if _, dup := c.categories[code]; dup {
			return nil, fmt.Errorf("duplicate passenger category %q", code)
		}
		if cat.Group == "" {
			cat.Group = GroupTourist
		}
		if !cat.Group.Valid() {
			return nil, fmt.Errorf("passenger category %q: unknown group %q", code, cat.Group)
		}
		cat.Code = code
		c.categories[code] = cat
		c.order = append(c.order, code)
	}
	return c, nil
}

// Get returns a category by code
func (c *Catalog) Get(code CategoryCode) (PassengerCategory, bool) {
	cat, ok := c.categories[code]
	return cat, ok
}

// Has reports whether a code is in the catalog
func (c *Catalog) Has(code CategoryCode) bool {
	_, ok := c.categories[code]
	return ok
}

// Categories returns all categories in declaration order
func (c *Catalog) Categories() []PassengerCategory {
	out := make([]PassengerCategory, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.categories[code])
	}
	return out
}

// CountsForPricing reports whether a code is pricing-relevant. Unknown codes are not.
func (c *Catalog) CountsForPricing(code CategoryCode) bool {
	cat, ok := c.categories[code]
	return ok && cat.CountsForPricing
}

// PricingCount is the pricing-relevant total of a composition
func (c *Catalog) PricingCount(comp Composition) int {
	total := 0
	for _, e := range comp.entries {
		if c.CountsForPricing(e.Category) {
			total += e.Count
		}
	}
	return total
}

// CompositionEntry is one category count
type CompositionEntry struct {
	Category CategoryCode `json:"category"`
	Count    int          `json:"count"`
}

// Composition is an ordered mapping of category code to count.
// Counts are never negative and zero counts are not stored.
type Composition struct {
	entries []CompositionEntry
}

// NewComposition builds a composition from entries, merging repeated codes
func NewComposition(entries ...CompositionEntry) (Composition, error) {
	var c Composition
	for _, e := range entries {
		if e.Count < 0 {
			return Composition{}, fmt.Errorf("negative count %d for %q", e.Count, e.Category)
		}
		c = c.Add(e.Category, e.Count)
	}
	return c, nil
}

// MustComposition parses "adult:2,child:1" and panics on malformed input.
// It exists for tests and fixtures.
func MustComposition(spec string) Composition {
	c, err := ParseComposition(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseComposition parses "adult:2,child:1"
func ParseComposition(spec string) (Composition, error) {
	var c Composition
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, count, ok := strings.Cut(part, ":")
		if !ok {
			return Composition{}, fmt.Errorf("invalid composition entry %q", part)
		}
		if strings.TrimSpace(code) == "" {
			return Composition{}, fmt.Errorf("missing category in %q", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return Composition{}, fmt.Errorf("invalid count in %q", part)
		}
		c = c.Add(NormalizeCode(code), n)
	}
	return c, nil
}

// Add returns a copy with n more people of a category
func (c Composition) Add(code CategoryCode, n int) Composition {
	code = NormalizeCode(string(code))
	out := Composition{entries: make([]CompositionEntry, 0, len(c.entries)+1)}
	found := false
	for _, e := range c.entries {
		if e.Category == code {
			e.Count += n
			found = true
		}
		if e.Count > 0 {
			out.entries = append(out.entries, e)
		}
	}
	if !found && n > 0 {
		out.entries = append(out.entries, CompositionEntry{Category: code, Count: n})
	}
	return out
}

// Count returns the count of one category
func (c Composition) Count(code CategoryCode) int {
	for _, e := range c.entries {
		if e.Category == code {
			return e.Count
		}
	}
	return 0
}

// CountOf sums several categories
func (c Composition) CountOf(codes []CategoryCode) int {
	total := 0
	for _, code := range codes {
		total += c.Count(code)
	}
	return total
}

// Total is the head count over every category
func (c Composition) Total() int {
	total := 0
	for _, e := range c.entries {
		total += e.Count
	}
	return total
}

// Entries returns a copy of the entries in insertion order
func (c Composition) Entries() []CompositionEntry {
	out := make([]CompositionEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// IsEmpty reports whether nobody is in the composition
func (c Composition) IsEmpty() bool {
	return len(c.entries) == 0
}

// Sub returns c minus other, clamped at zero per category
func (c Composition) Sub(other Composition) Composition {
	out := Composition{}
	for _, e := range c.entries {
		if n := e.Count - other.Count(e.Category); n > 0 {
			out.entries = append(out.entries, CompositionEntry{Category: e.Category, Count: n})
		}
	}
	return out
}

// Equal compares two compositions ignoring order
func (c Composition) Equal(other Composition) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for _, e := range c.entries {
		if other.Count(e.Category) != e.Count {
			return false
		}
	}
	return true
}

// String renders "adult:2,child:1" in insertion order
func (c Composition) String() string {
	parts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		parts = append(parts, fmt.Sprintf("%s:%d", e.Category, e.Count))
	}
	return strings.Join(parts, ",")
}

// SortedCodes returns the category codes in lexical order
func (c Composition) SortedCodes() []CategoryCode {
	codes := make([]CategoryCode, 0, len(c.entries))
	for _, e := range c.entries {
		codes = append(codes, e.Category)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// MarshalJSON encodes the composition as its ordered entry list
func (c Composition) MarshalJSON() ([]byte, error) {
	return marshalEntries(c.entries)
}

// UnmarshalJSON decodes an ordered entry list
func (c *Composition) UnmarshalJSON(data []byte) error {
	entries, err := unmarshalEntries(data)
	if err != nil {
		return err
	}
	parsed, err := NewComposition(entries...)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
