package cotation

import (
	"fmt"

	"tripcost/core/quantity"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// DefaultRangeCategory is the category counted by range profiles
const DefaultRangeCategory types.CategoryCode = "adult"

// unit is one composition to price
type unit struct {
	index int
	pax   int
	label string
	comp  types.Composition
}

// RangeComposition builds the composition priced for pax travelers of a
// range profile: pax people of the range category plus the staff its rules add.
func RangeComposition(profile *types.Profile, pax int) types.Composition {
	category := profile.RangeCategory
	if category == "" {
		category = DefaultRangeCategory
	}
	comp := types.Composition{}.Add(category, pax)

	staff := 0
	for _, rule := range profile.StaffRules {
		base := pax
		if rule.IncludeStaff {
			base += staff
		}
		n := rule.Minimum
		if rule.Per > 0 {
			n = max(n, quantity.CeilDiv(base, rule.Per))
		}
		if n <= 0 {
			continue
		}
		staff += n
		comp = comp.Add(rule.Category, n)
	}
	return comp
}

// units expands a profile into the compositions to price
func units(profile *types.Profile, catalog *types.Catalog) ([]unit, error) {
	switch profile.Mode {
	case types.ModeRange:
		category := profile.RangeCategory
		if category == "" {
			category = DefaultRangeCategory
		}
		if !catalog.Has(category) {
			return nil, errors.Malformed("profile %s counts unknown category %q", profile.ID, category)
		}
		for _, rule := range profile.StaffRules {
			if !catalog.Has(rule.Category) {
				return nil, errors.Malformed("profile %s adds unknown staff category %q", profile.ID, rule.Category)
			}
		}
		if profile.MinPax < 1 || profile.MaxPax < profile.MinPax {
			return nil, errors.Malformed("profile %s has invalid pax range %d-%d", profile.ID, profile.MinPax, profile.MaxPax)
		}

		out := make([]unit, 0, profile.MaxPax-profile.MinPax+1)
		for pax := profile.MinPax; pax <= profile.MaxPax; pax++ {
			out = append(out, unit{
				index: len(out),
				pax:   pax,
				label: fmt.Sprintf("%d pax", pax),
				comp:  RangeComposition(profile, pax),
			})
		}
		return out, nil

	case types.ModeCustom:
		if profile.Composition.IsEmpty() {
			return nil, errors.Malformed("profile %s has an empty composition", profile.ID)
		}
		return []unit{{
			pax:   catalog.PricingCount(profile.Composition),
			label: profile.Composition.String(),
			comp:  profile.Composition,
		}}, nil

	default:
		return nil, errors.Malformed("profile %s has unknown mode %q", profile.ID, profile.Mode)
	}
}
