// Package pricing resolves the base unit cost of a line item for a service
// date from its seasonal rules, and converts costs between currencies.
package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Resolution is the outcome of rate resolution
type Resolution struct {
	UnitCost decimal.Decimal
	Currency types.Currency
	Source   types.CostSource

	// Rule is the winning season rule, nil when the base cost applies
	Rule *types.SeasonRule
}

// SourceRef names the rule that produced the cost, if any
func (r Resolution) SourceRef() string {
	if r.Rule == nil {
		return ""
	}
	if r.Rule.Name != "" {
		return r.Rule.Name
	}
	return r.Rule.ID
}

// ResolveItem determines the unit cost of a line item on a service date.
// Fixed-price items return their stored value verbatim and ignore seasons.
// A configuration error is returned alongside a base-cost resolution when
// the item's rules are inconsistent; callers keep the resolution and record
// the error as a warning.
func ResolveItem(item *types.LineItem, date time.Time) (Resolution, error) {
	if item.PricingMethod == types.PricingFixed {
		return Resolution{
			UnitCost: item.FixedValue,
			Currency: item.Currency,
			Source:   types.SourceFixed,
		}, nil
	}

	cost, rule, err := ResolveCost(item.UnitCost, item.Seasons, date)
	res := Resolution{UnitCost: cost, Currency: item.Currency, Source: types.SourceBase, Rule: rule}
	if rule != nil {
		res.Source = types.SourceSeason
	}
	if err != nil {
		return res, errors.Wrapf(errors.TypeConfiguration, err, "item %s", item.ID)
	}
	return res, nil
}

// ResolveCost applies the winning season rule for date to base. The rule set
// is validated as a whole: if any rule is inconsistent, base is returned
// together with the error.
func ResolveCost(base decimal.Decimal, rules []types.SeasonRule, date time.Time) (decimal.Decimal, *types.SeasonRule, error) {
	if err := ValidateRules(rules); err != nil {
		return base, nil, err
	}

	winner := Winner(rules, date)
	if winner == nil {
		return base, nil, nil
	}

	switch {
	case winner.Override != nil:
		return *winner.Override, winner, nil
	case winner.Multiplier != nil:
		return base.Mul(*winner.Multiplier), winner, nil
	default:
		return base, winner, nil
	}
}

// ValidateRules rejects rule definitions the resolver cannot apply
func ValidateRules(rules []types.SeasonRule) error {
	for _, r := range rules {
		if r.Multiplier != nil && r.Override != nil {
			return errors.Configuration("season rule %s sets both a multiplier and an override", r.ID)
		}
		switch r.Kind {
		case types.SeasonFixed, "":
			if r.Start.IsZero() || r.End.IsZero() {
				return errors.Configuration("season rule %s has no date range", r.ID)
			}
			if r.End.Before(r.Start) {
				return errors.Configuration("season rule %s ends before it starts", r.ID)
			}
		case types.SeasonRecurring:
			if !validMonthDay(r.StartDay) || !validMonthDay(r.EndDay) {
				return errors.Configuration("season rule %s has an invalid month-day range", r.ID)
			}
		default:
			return errors.Configuration("season rule %s has unknown kind %q", r.ID, r.Kind)
		}
	}
	return nil
}

func validMonthDay(m types.MonthDay) bool {
	return m.Month >= time.January && m.Month <= time.December && m.Day >= 1 && m.Day <= 31
}

// Matches reports whether a rule applies on a date
func Matches(r types.SeasonRule, date time.Time) bool {
	if date.IsZero() {
		return false
	}
	date = types.TruncateDate(date)
	if !r.Weekdays.Allows(date.Weekday()) {
		return false
	}

	if r.Kind == types.SeasonRecurring {
		o := types.MonthDayOf(date).Ordinal()
		start, end := r.StartDay.Ordinal(), r.EndDay.Ordinal()
		if start <= end {
			return start <= o && o <= end
		}
		// wraps across the year end
		return o >= start || o <= end
	}

	start, end := types.TruncateDate(r.Start), types.TruncateDate(r.End)
	return !date.Before(start) && !date.After(end)
}

// Less is the tie-break order of overlapping rules: higher priority first,
// then most recently created, then ID for rules with equal sequence.
func Less(a, b types.SeasonRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Sequence != b.Sequence {
		return a.Sequence > b.Sequence
	}
	return a.ID < b.ID
}

// Winner returns the highest ranked rule matching date, or nil
func Winner(rules []types.SeasonRule, date time.Time) *types.SeasonRule {
	matches := make([]types.SeasonRule, 0, len(rules))
	for _, r := range rules {
		if Matches(r, date) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return Less(matches[i], matches[j]) })
	w := matches[0]
	return &w
}

// Describe renders a rule for diagnostics
func Describe(r types.SeasonRule) string {
	if r.Kind == types.SeasonRecurring {
		return fmt.Sprintf("%s [%02d-%02d..%02d-%02d] p%d", r.ID,
			r.StartDay.Month, r.StartDay.Day, r.EndDay.Month, r.EndDay.Day, r.Priority)
	}
	return fmt.Sprintf("%s [%s..%s] p%d", r.ID,
		r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly), r.Priority)
}
