// Package types - Accommodation and room types
package types

import "github.com/shopspring/decimal"

// BedType is a bed layout a room category can be sold with
type BedType struct {
	Code          string `json:"code"`
	BaseOccupancy int    `json:"base_occupancy"`

	NightlyCost decimal.Decimal `json:"nightly_cost"`
	Currency    Currency        `json:"currency"`

	// ExtraPersonSupplement is charged per night for each occupant above BaseOccupancy
	ExtraPersonSupplement decimal.Decimal `json:"extra_person_supplement"`

	Seasons []SeasonRule `json:"seasons,omitempty"`
}

// RoomCategory is a sellable room type of an accommodation
type RoomCategory struct {
	ID        string `json:"id"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name,omitempty"`
	SortOrder int    `json:"sort_order"`

	MinOccupancy int `json:"min_occupancy"`
	MaxOccupancy int `json:"max_occupancy"`
	MinAdults    int `json:"min_adults"`
	MaxAdults    int `json:"max_adults"`
	MaxChildren  int `json:"max_children"`

	BedTypes []BedType `json:"bed_types"`
}

// Accommodation is a lodging resource with its room categories
type Accommodation struct {
	ID    string         `json:"id"`
	Name  string         `json:"name,omitempty"`
	Rooms []RoomCategory `json:"rooms"`
}

// RoomDemandEntry is Quantity identical rooms, each holding Adults and Children
type RoomDemandEntry struct {
	// Room matches a room category by ID or code; empty picks the first category offering BedType
	Room     string `json:"room,omitempty"`
	BedType  string `json:"bed_type"`
	Quantity int    `json:"quantity"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
}

// RoomDemand is a caller-supplied room layout that bypasses automatic allocation
type RoomDemand struct {
	Rooms []RoomDemandEntry `json:"rooms"`
}

// AllocatedRoom is one room of an allocation
type AllocatedRoom struct {
	RoomCategoryID string          `json:"room_category_id"`
	RoomCode       string          `json:"room_code,omitempty"`
	BedType        string          `json:"bed_type"`
	Adults         int             `json:"adults"`
	Children       int             `json:"children"`
	Cost           decimal.Decimal `json:"cost"`
}

// Occupants is the number of people in the room
func (r AllocatedRoom) Occupants() int {
	return r.Adults + r.Children
}
