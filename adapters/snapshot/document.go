// Package snapshot is the data-access boundary of the engine. It decodes a
// trip snapshot document, written in HCL or JSON, into core types.
//
// Every field is decoded once into the typed structs below. Monetary values
// are strings so no precision is lost before they reach decimal.Decimal.
package snapshot

// Document is the root of a snapshot file
type Document struct {
	Trip       TripDoc       `json:"trip" hcl:"trip,block"`
	Categories []CategoryDoc `json:"categories" hcl:"category,block"`
	Profiles   []ProfileDoc  `json:"profiles,omitempty" hcl:"profile,block"`
	Rates      []RateDoc     `json:"rates,omitempty" hcl:"rate,block"`
}

// CategoryDoc is a passenger category
type CategoryDoc struct {
	Code             string `json:"code" hcl:"code,label"`
	Label            string `json:"label,omitempty" hcl:"label,optional"`
	Group            string `json:"group,omitempty" hcl:"group,optional"`
	MinAge           *int   `json:"min_age,omitempty" hcl:"min_age,optional"`
	MaxAge           *int   `json:"max_age,omitempty" hcl:"max_age,optional"`
	CountsForPricing *bool  `json:"counts_for_pricing,omitempty" hcl:"counts_for_pricing,optional"`
	RequiresLodging  bool   `json:"requires_lodging,omitempty" hcl:"requires_lodging,optional"`
	Role             string `json:"role,omitempty" hcl:"role,optional"`
}

// TripDoc is a trip with its schedule
type TripDoc struct {
	ID           string `json:"id" hcl:"id,label"`
	Name         string `json:"name,omitempty" hcl:"name,optional"`
	StartDate    string `json:"start_date,omitempty" hcl:"start_date,optional"`
	DurationDays int    `json:"duration_days,omitempty" hcl:"duration_days,optional"`

	Currency   string `json:"currency,omitempty" hcl:"currency,optional"`
	VATPct     string `json:"vat_pct,omitempty" hcl:"vat_pct,optional"`
	VATMode    string `json:"vat_mode,omitempty" hcl:"vat_mode,optional"`
	MarginPct  string `json:"margin_pct,omitempty" hcl:"margin_pct,optional"`
	MarginType string `json:"margin_type,omitempty" hcl:"margin_type,optional"`

	Days           []DayDoc           `json:"days" hcl:"day,block"`
	Blocks         []BlockDoc         `json:"blocks" hcl:"block,block"`
	Conditions     []ConditionDoc     `json:"conditions,omitempty" hcl:"condition,block"`
	TripConditions []TripConditionDoc `json:"trip_conditions,omitempty" hcl:"trip_condition,block"`
	Accommodations []AccommodationDoc `json:"accommodations,omitempty" hcl:"accommodation,block"`
	RoomDemand     *RoomDemandDoc     `json:"room_demand,omitempty" hcl:"room_demand,block"`
}

// DayDoc is one scheduled day
type DayDoc struct {
	ID        string `json:"id" hcl:"id,label"`
	Number    int    `json:"number" hcl:"number"`
	NumberEnd int    `json:"number_end,omitempty" hcl:"number_end,optional"`
	Title     string `json:"title,omitempty" hcl:"title,optional"`
}

// BlockDoc is a block of the trip arena
type BlockDoc struct {
	ID          string    `json:"id" hcl:"id,label"`
	Name        string    `json:"name,omitempty" hcl:"name,optional"`
	Kind        string    `json:"kind,omitempty" hcl:"kind,optional"`
	Day         string    `json:"day,omitempty" hcl:"day,optional"`
	Parent      string    `json:"parent,omitempty" hcl:"parent,optional"`
	Transversal bool      `json:"transversal,omitempty" hcl:"transversal,optional"`
	Condition   string    `json:"condition,omitempty" hcl:"condition,optional"`
	SortOrder   *int      `json:"sort_order,omitempty" hcl:"sort_order,optional"`
	Items       []ItemDoc `json:"items,omitempty" hcl:"item,block"`
}

// ItemDoc is a line item
type ItemDoc struct {
	ID        string `json:"id" hcl:"id,label"`
	Name      string `json:"name,omitempty" hcl:"name,optional"`
	SortOrder *int   `json:"sort_order,omitempty" hcl:"sort_order,optional"`

	PricingMethod string `json:"pricing_method,omitempty" hcl:"pricing_method,optional"`
	FixedValue    string `json:"fixed_value,omitempty" hcl:"fixed_value,optional"`
	UnitCost      string `json:"unit_cost,omitempty" hcl:"unit_cost,optional"`
	Currency      string `json:"currency,omitempty" hcl:"currency,optional"`

	Option        string `json:"option,omitempty" hcl:"option,optional"`
	Accommodation string `json:"accommodation,omitempty" hcl:"accommodation,optional"`

	// TierCategories is a comma separated category list
	TierCategories string            `json:"tier_categories,omitempty" hcl:"tier_categories,optional"`
	CategoryPrices map[string]string `json:"category_prices,omitempty" hcl:"category_prices,optional"`

	Quantity *QuantityDoc `json:"quantity,omitempty" hcl:"quantity,block"`
	Seasons  []SeasonDoc  `json:"seasons,omitempty" hcl:"season,block"`
	Tiers    []TierDoc    `json:"tiers,omitempty" hcl:"tier,block"`
}

// QuantityDoc is a quantity rule; an absent rule bills one unit per pricing passenger
type QuantityDoc struct {
	Kind       string `json:"kind,omitempty" hcl:"kind,optional"`
	Categories string `json:"categories,omitempty" hcl:"categories,optional"`
	Per        *int   `json:"per,omitempty" hcl:"per,optional"`
	Times      *int   `json:"times,omitempty" hcl:"times,optional"`
}

// SeasonDoc is a season rule. Fixed seasons use start and end dates,
// recurring ones use MM-DD month-days.
type SeasonDoc struct {
	ID         string   `json:"id" hcl:"id,label"`
	Name       string   `json:"name,omitempty" hcl:"name,optional"`
	Kind       string   `json:"kind,omitempty" hcl:"kind,optional"`
	Start      string   `json:"start,omitempty" hcl:"start,optional"`
	End        string   `json:"end,omitempty" hcl:"end,optional"`
	Weekdays   []string `json:"weekdays,omitempty" hcl:"weekdays,optional"`
	Priority   int      `json:"priority,omitempty" hcl:"priority,optional"`
	Sequence   int64    `json:"sequence,omitempty" hcl:"sequence,optional"`
	Multiplier string   `json:"multiplier,omitempty" hcl:"multiplier,optional"`
	Override   string   `json:"override,omitempty" hcl:"override,optional"`
}

// TierDoc is a pax tier
type TierDoc struct {
	PaxMin         int               `json:"pax_min" hcl:"pax_min"`
	PaxMax         int               `json:"pax_max" hcl:"pax_max"`
	UnitCost       string            `json:"unit_cost" hcl:"unit_cost"`
	Adjustments    map[string]string `json:"adjustments,omitempty" hcl:"adjustments,optional"`
	CategoryPrices map[string]string `json:"category_prices,omitempty" hcl:"category_prices,optional"`
}

// ConditionDoc is a condition with its options
type ConditionDoc struct {
	ID      string      `json:"id" hcl:"id,label"`
	Name    string      `json:"name,omitempty" hcl:"name,optional"`
	Scope   string      `json:"scope,omitempty" hcl:"scope,optional"`
	Options []OptionDoc `json:"options" hcl:"option,block"`
}

// OptionDoc is a condition option
type OptionDoc struct {
	ID        string `json:"id" hcl:"id,label"`
	Label     string `json:"label,omitempty" hcl:"label,optional"`
	SortOrder int    `json:"sort_order,omitempty" hcl:"sort_order,optional"`
}

// TripConditionDoc binds a condition to the trip. Active defaults to true.
type TripConditionDoc struct {
	Condition string `json:"condition" hcl:"condition,label"`
	Selected  string `json:"selected,omitempty" hcl:"selected,optional"`
	Active    *bool  `json:"active,omitempty" hcl:"active,optional"`
}

// AccommodationDoc is a lodging resource
type AccommodationDoc struct {
	ID    string    `json:"id" hcl:"id,label"`
	Name  string    `json:"name,omitempty" hcl:"name,optional"`
	Rooms []RoomDoc `json:"rooms" hcl:"room,block"`
}

// RoomDoc is a room category
type RoomDoc struct {
	ID           string   `json:"id" hcl:"id,label"`
	Code         string   `json:"code,omitempty" hcl:"code,optional"`
	Name         string   `json:"name,omitempty" hcl:"name,optional"`
	SortOrder    int      `json:"sort_order,omitempty" hcl:"sort_order,optional"`
	MinOccupancy int      `json:"min_occupancy,omitempty" hcl:"min_occupancy,optional"`
	MaxOccupancy int      `json:"max_occupancy,omitempty" hcl:"max_occupancy,optional"`
	MinAdults    int      `json:"min_adults,omitempty" hcl:"min_adults,optional"`
	MaxAdults    int      `json:"max_adults,omitempty" hcl:"max_adults,optional"`
	MaxChildren  int      `json:"max_children,omitempty" hcl:"max_children,optional"`
	Beds         []BedDoc `json:"beds" hcl:"bed,block"`
}

// BedDoc is a bed type of a room
type BedDoc struct {
	Code          string      `json:"code" hcl:"code,label"`
	BaseOccupancy int         `json:"base_occupancy" hcl:"base_occupancy"`
	NightlyCost   string      `json:"nightly_cost" hcl:"nightly_cost"`
	Currency      string      `json:"currency,omitempty" hcl:"currency,optional"`
	Supplement    string      `json:"extra_person_supplement,omitempty" hcl:"extra_person_supplement,optional"`
	Seasons       []SeasonDoc `json:"seasons,omitempty" hcl:"season,block"`
}

// RoomDemandDoc is a room layout
type RoomDemandDoc struct {
	Rooms []RoomDemandEntryDoc `json:"rooms" hcl:"room,block"`
}

// RoomDemandEntryDoc is a group of identical rooms
type RoomDemandEntryDoc struct {
	Room     string `json:"room,omitempty" hcl:"room,optional"`
	BedType  string `json:"bed_type" hcl:"bed_type"`
	Quantity int    `json:"quantity" hcl:"quantity"`
	Adults   int    `json:"adults" hcl:"adults"`
	Children int    `json:"children,omitempty" hcl:"children,optional"`
}

// ProfileDoc is a cotation profile
type ProfileDoc struct {
	ID   string `json:"id" hcl:"id,label"`
	Name string `json:"name,omitempty" hcl:"name,optional"`
	Mode string `json:"mode,omitempty" hcl:"mode,optional"`

	MinPax        int            `json:"min_pax,omitempty" hcl:"min_pax,optional"`
	MaxPax        int            `json:"max_pax,omitempty" hcl:"max_pax,optional"`
	RangeCategory string         `json:"range_category,omitempty" hcl:"range_category,optional"`
	Staff         []StaffRuleDoc `json:"staff,omitempty" hcl:"staff,block"`

	// Composition is "adult:2,child:1"
	Composition string `json:"composition,omitempty" hcl:"composition,optional"`

	Selections map[string]string `json:"selections,omitempty" hcl:"selections,optional"`
	RoomDemand *RoomDemandDoc    `json:"room_demand,omitempty" hcl:"room_demand,block"`
}

// StaffRuleDoc adds staff to range compositions
type StaffRuleDoc struct {
	Category     string `json:"category" hcl:"category,label"`
	Per          int    `json:"per,omitempty" hcl:"per,optional"`
	Minimum      int    `json:"minimum,omitempty" hcl:"minimum,optional"`
	IncludeStaff bool   `json:"include_staff,omitempty" hcl:"include_staff,optional"`
}

// RateDoc is an exchange rate: 1 From = Rate To
type RateDoc struct {
	From string `json:"from" hcl:"from"`
	To   string `json:"to" hcl:"to"`
	Rate string `json:"rate" hcl:"rate"`
}
