package snapshot

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tripcost/core/determinism"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

const (
	dateLayout     = "2006-01-02"
	monthDayLayout = "01-02"
)

// Snapshot is a decoded document
type Snapshot struct {
	Trip     *types.Trip
	Catalog  *types.Catalog
	Profiles []types.Profile
	Rates    types.ExchangeRates
}

// Profile returns a profile by ID. An empty ID selects the only profile.
func (s *Snapshot) Profile(id string) (*types.Profile, error) {
	if id == "" && len(s.Profiles) == 1 {
		return &s.Profiles[0], nil
	}
	for i := range s.Profiles {
		if s.Profiles[i].ID == id {
			return &s.Profiles[i], nil
		}
	}
	if id == "" {
		return nil, errors.Input("snapshot has several profiles: choose one")
	}
	return nil, errors.NotFound("profile", id)
}

// converter collects the first shape error with the path it occurred at
type converter struct {
	err error
}

func (c *converter) fail(path, format string, args ...interface{}) {
	if c.err == nil {
		c.err = errors.Malformed(format, args...).WithContext("path", path)
	}
}

func (c *converter) decimal(path, s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		c.fail(path, "invalid amount %q", s)
		return decimal.Zero
	}
	return d
}

func (c *converter) optionalDecimal(path, s string) *decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d := c.decimal(path, s)
	return &d
}

func (c *converter) date(path, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		c.fail(path, "invalid date %q, expected YYYY-MM-DD", s)
		return time.Time{}
	}
	return t
}

func (c *converter) monthDay(path, s string) types.MonthDay {
	t, err := time.Parse(monthDayLayout, s)
	if err != nil {
		c.fail(path, "invalid month-day %q, expected MM-DD", s)
		return types.MonthDay{}
	}
	return types.MonthDayOf(t)
}

func (c *converter) amounts(path string, m map[string]string) types.CategoryAmounts {
	if len(m) == 0 {
		return nil
	}
	out := make(types.CategoryAmounts, 0, len(m))
	for _, k := range determinism.SortedKeys(m) {
		out = append(out, types.CategoryAmount{
			Category: types.NormalizeCode(k),
			Amount:   c.decimal(path+"."+k, m[k]),
		})
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (c *converter) weekdays(path string, names []string) types.WeekdayMask {
	var days []time.Weekday
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdays[key]
		if !ok {
			c.fail(path, "unknown weekday %q", name)
			continue
		}
		days = append(days, d)
	}
	return types.MaskOf(days...)
}

// Convert turns a decoded document into core types. Shape problems are
// MALFORMED_INPUT errors carrying the path of the offending field.
// The block tree itself is validated by cost.Compile.
func Convert(doc *Document) (*Snapshot, error) {
	c := &converter{}

	catalog, err := c.catalog(doc.Categories)
	if err != nil {
		return nil, err
	}
	trip := c.trip(&doc.Trip)

	profiles := make([]types.Profile, 0, len(doc.Profiles))
	for i := range doc.Profiles {
		profiles = append(profiles, c.profile(trip.ID, &doc.Profiles[i]))
	}

	rates := make(types.ExchangeRates, 0, len(doc.Rates))
	for _, r := range doc.Rates {
		rate := c.decimal("rate."+r.From+"/"+r.To, r.Rate)
		if !rate.IsPositive() {
			c.fail("rate", "rate %s/%s must be positive", r.From, r.To)
		}
		rates = append(rates, types.ExchangeRate{
			From: currency(r.From),
			To:   currency(r.To),
			Rate: rate,
		})
	}

	if c.err != nil {
		return nil, c.err
	}
	return &Snapshot{Trip: trip, Catalog: catalog, Profiles: profiles, Rates: rates}, nil
}

func currency(s string) types.Currency {
	return types.Currency(strings.ToUpper(strings.TrimSpace(s)))
}

func (c *converter) catalog(docs []CategoryDoc) (*types.Catalog, error) {
	cats := make([]types.PassengerCategory, 0, len(docs))
	for _, d := range docs {
		group := types.GroupKind(d.Group)
		counts := group == "" || group == types.GroupTourist
		if d.CountsForPricing != nil {
			counts = *d.CountsForPricing
		}
		role := types.OccupantRole(d.Role)
		if role != "" && role != types.OccupantAdult && role != types.OccupantChild {
			c.fail("category."+d.Code, "unknown occupant role %q", d.Role)
		}
		cats = append(cats, types.PassengerCategory{
			Code:             types.CategoryCode(d.Code),
			Label:            d.Label,
			Group:            group,
			MinAge:           d.MinAge,
			MaxAge:           d.MaxAge,
			CountsForPricing: counts,
			RequiresLodging:  d.RequiresLodging,
			Role:             role,
		})
	}
	catalog, err := types.NewCatalog(cats...)
	if err != nil {
		return nil, errors.Wrap(errors.TypeMalformedInput, "invalid passenger catalog", err)
	}
	return catalog, nil
}

func (c *converter) trip(d *TripDoc) *types.Trip {
	path := "trip." + d.ID
	t := &types.Trip{
		ID:              d.ID,
		Name:            d.Name,
		StartDate:       c.date(path+".start_date", d.StartDate),
		DurationDays:    d.DurationDays,
		DefaultCurrency: currency(d.Currency),
		VATPct:          c.decimal(path+".vat_pct", d.VATPct),
		VATMode:         types.VATMode(d.VATMode),
		Margin: types.MarginSpec{
			Pct:  c.decimal(path+".margin_pct", d.MarginPct),
			Type: types.MarginType(d.MarginType),
		},
	}
	if t.Margin.Type == "" {
		t.Margin.Type = types.MarginMarkupOnCost
	}

	for _, day := range d.Days {
		t.Days = append(t.Days, types.Day{ID: day.ID, Number: day.Number, NumberEnd: day.NumberEnd, Title: day.Title})
	}
	for i := range d.Blocks {
		t.Blocks = append(t.Blocks, c.block(path, i, &d.Blocks[i]))
	}
	owners := make(map[string]string)
	for _, cd := range d.Conditions {
		cond := types.Condition{ID: cd.ID, Name: cd.Name, Scope: types.ConditionScope(cd.Scope)}
		if !cond.Scope.Valid() {
			c.fail(path+".condition."+cd.ID, "unknown condition scope %q", cd.Scope)
		}
		for j, o := range cd.Options {
			if owner, dup := owners[o.ID]; dup {
				c.fail(path+".condition."+cd.ID, "option %q already belongs to condition %q", o.ID, owner)
			}
			owners[o.ID] = cd.ID
			order := o.SortOrder
			if order == 0 {
				order = j
			}
			cond.Options = append(cond.Options, types.ConditionOption{ID: o.ID, Label: o.Label, SortOrder: order})
		}
		t.Conditions = append(t.Conditions, cond)
	}
	for _, tc := range d.TripConditions {
		active := true
		if tc.Active != nil {
			active = *tc.Active
		}
		t.TripConditions = append(t.TripConditions, types.TripCondition{
			ConditionID:      tc.Condition,
			SelectedOptionID: tc.Selected,
			IsActive:         active,
		})
	}
	for _, ad := range d.Accommodations {
		t.Accommodations = append(t.Accommodations, c.accommodation(path, &ad))
	}
	t.RoomDemand = c.roomDemand(d.RoomDemand)
	return t
}

func (c *converter) block(tripPath string, index int, d *BlockDoc) types.Block {
	path := tripPath + ".block." + d.ID
	b := types.Block{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        types.BlockKind(d.Kind),
		DayID:       d.Day,
		ParentID:    d.Parent,
		Transversal: d.Transversal,
		ConditionID: d.Condition,
		SortOrder:   orderOf(d.SortOrder, index),
	}
	if b.Kind == "" {
		b.Kind = types.BlockActivity
	}
	for i := range d.Items {
		b.Items = append(b.Items, c.item(path, i, &d.Items[i]))
	}
	return b
}

func orderOf(explicit *int, index int) int {
	if explicit != nil {
		return *explicit
	}
	return index
}

func (c *converter) item(blockPath string, index int, d *ItemDoc) types.LineItem {
	path := blockPath + ".item." + d.ID
	item := types.LineItem{
		ID:                d.ID,
		Name:              d.Name,
		SortOrder:         orderOf(d.SortOrder, index),
		PricingMethod:     types.PricingMethod(d.PricingMethod),
		FixedValue:        c.decimal(path+".fixed_value", d.FixedValue),
		UnitCost:          c.decimal(path+".unit_cost", d.UnitCost),
		Currency:          currency(d.Currency),
		ConditionOptionID: d.Option,
		AccommodationID:   d.Accommodation,
		CategoryPrices:    c.amounts(path+".category_prices", d.CategoryPrices),
		Quantity:          c.quantity(path, d.Quantity),
	}
	if d.TierCategories != "" {
		item.TierCategories = types.ParseCategoryList(d.TierCategories)
	}
	if item.PricingMethod == "" {
		item.PricingMethod = types.PricingQuotation
	}
	if !item.PricingMethod.Valid() {
		c.fail(path, "unknown pricing method %q", d.PricingMethod)
	}
	item.Seasons = c.seasons(path, d.Seasons)
	for _, td := range d.Tiers {
		item.Tiers = append(item.Tiers, types.PriceTier{
			PaxMin:         td.PaxMin,
			PaxMax:         td.PaxMax,
			UnitCost:       c.decimal(path+".tier.unit_cost", td.UnitCost),
			Adjustments:    c.amounts(path+".tier.adjustments", td.Adjustments),
			CategoryPrices: c.amounts(path+".tier.category_prices", td.CategoryPrices),
		})
	}
	return item
}

func (c *converter) quantity(itemPath string, d *QuantityDoc) types.QuantityRule {
	rule := types.QuantityRule{Kind: types.QuantityRatio, Per: 1, Times: 1}
	if d == nil {
		return rule
	}
	if d.Kind != "" {
		rule.Kind = types.QuantityKind(d.Kind)
	}
	if !rule.Kind.Valid() {
		c.fail(itemPath+".quantity", "unknown quantity kind %q", d.Kind)
	}
	if d.Categories != "" {
		rule.Categories = types.ParseCategoryList(d.Categories)
	}
	if d.Per != nil {
		rule.Per = *d.Per
	}
	if d.Times != nil {
		rule.Times = *d.Times
	}
	return rule
}

// seasons keeps rule semantics checks (both multiplier and override, inverted
// ranges) to the rate resolver, which prices such items at base
func (c *converter) seasons(ownerPath string, docs []SeasonDoc) []types.SeasonRule {
	var rules []types.SeasonRule
	for i, d := range docs {
		path := ownerPath + ".season." + d.ID
		rule := types.SeasonRule{
			ID:         d.ID,
			Name:       d.Name,
			Kind:       types.SeasonKind(d.Kind),
			Weekdays:   c.weekdays(path+".weekdays", d.Weekdays),
			Priority:   d.Priority,
			Sequence:   d.Sequence,
			Multiplier: c.optionalDecimal(path+".multiplier", d.Multiplier),
			Override:   c.optionalDecimal(path+".override", d.Override),
		}
		if rule.Sequence == 0 {
			rule.Sequence = int64(i + 1)
		}
		if rule.Kind == "" {
			rule.Kind = types.SeasonFixed
			if len(d.Start) == len(monthDayLayout) {
				rule.Kind = types.SeasonRecurring
			}
		}
		switch rule.Kind {
		case types.SeasonFixed:
			rule.Start = c.date(path+".start", d.Start)
			rule.End = c.date(path+".end", d.End)
		case types.SeasonRecurring:
			rule.StartDay = c.monthDay(path+".start", d.Start)
			rule.EndDay = c.monthDay(path+".end", d.End)
		default:
			c.fail(path, "unknown season kind %q", d.Kind)
		}
		rules = append(rules, rule)
	}
	return rules
}

func (c *converter) accommodation(tripPath string, d *AccommodationDoc) types.Accommodation {
	path := tripPath + ".accommodation." + d.ID
	acc := types.Accommodation{ID: d.ID, Name: d.Name}
	for i, rd := range d.Rooms {
		order := rd.SortOrder
		if order == 0 {
			order = i
		}
		room := types.RoomCategory{
			ID:           rd.ID,
			Code:         rd.Code,
			Name:         rd.Name,
			SortOrder:    order,
			MinOccupancy: rd.MinOccupancy,
			MaxOccupancy: rd.MaxOccupancy,
			MinAdults:    rd.MinAdults,
			MaxAdults:    rd.MaxAdults,
			MaxChildren:  rd.MaxChildren,
		}
		for _, bd := range rd.Beds {
			bedPath := path + ".room." + rd.ID + ".bed." + bd.Code
			if bd.BaseOccupancy < 1 {
				c.fail(bedPath, "base occupancy must be at least 1")
			}
			room.BedTypes = append(room.BedTypes, types.BedType{
				Code:                  bd.Code,
				BaseOccupancy:         bd.BaseOccupancy,
				NightlyCost:           c.decimal(bedPath+".nightly_cost", bd.NightlyCost),
				Currency:              currency(bd.Currency),
				ExtraPersonSupplement: c.decimal(bedPath+".extra_person_supplement", bd.Supplement),
				Seasons:               c.seasons(bedPath, bd.Seasons),
			})
		}
		acc.Rooms = append(acc.Rooms, room)
	}
	return acc
}

func (c *converter) roomDemand(d *RoomDemandDoc) *types.RoomDemand {
	if d == nil {
		return nil
	}
	demand := &types.RoomDemand{}
	for _, e := range d.Rooms {
		if e.Quantity < 0 || e.Adults < 0 || e.Children < 0 {
			c.fail("room_demand", "negative room demand for %s", e.BedType)
		}
		demand.Rooms = append(demand.Rooms, types.RoomDemandEntry{
			Room:     e.Room,
			BedType:  e.BedType,
			Quantity: e.Quantity,
			Adults:   e.Adults,
			Children: e.Children,
		})
	}
	return demand
}

func (c *converter) profile(tripID string, d *ProfileDoc) types.Profile {
	path := "profile." + d.ID
	p := types.Profile{
		ID:            d.ID,
		TripID:        tripID,
		Name:          d.Name,
		Mode:          types.ProfileMode(d.Mode),
		MinPax:        d.MinPax,
		MaxPax:        d.MaxPax,
		RangeCategory: types.NormalizeCode(d.RangeCategory),
		Selections:    d.Selections,
		RoomDemand:    c.roomDemand(d.RoomDemand),
	}
	if p.Mode == "" {
		p.Mode = types.ModeRange
		if d.Composition != "" {
			p.Mode = types.ModeCustom
		}
	}
	if !p.Mode.Valid() {
		c.fail(path, "unknown profile mode %q", d.Mode)
	}
	if d.Composition != "" {
		comp, err := types.ParseComposition(d.Composition)
		if err != nil {
			c.fail(path+".composition", "%v", err)
		}
		p.Composition = comp
	}
	for _, s := range d.Staff {
		p.StaffRules = append(p.StaffRules, types.StaffRule{
			Category:     types.NormalizeCode(s.Category),
			Per:          s.Per,
			Minimum:      s.Minimum,
			IncludeStaff: s.IncludeStaff,
		})
	}
	return p
}
