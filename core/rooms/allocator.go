// Package rooms assigns travelers to rooms of an accommodation at minimal cost.
package rooms

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

// DefaultExhaustiveLimit is the largest party solved exactly
const DefaultExhaustiveLimit = 20

// Pricer prices the stay of one room
type Pricer interface {
	StayCost(room types.RoomCategory, bed types.BedType, occupants int) (decimal.Decimal, error)
}

// Party is the lodged part of a composition split by occupant role
type Party struct {
	Adults   int
	Children int

	// Members keeps the lodged categories in composition order
	Members types.Composition
	roles   map[types.CategoryCode]types.OccupantRole
}

// Size is the number of lodged people
func (p Party) Size() int {
	return p.Adults + p.Children
}

// PartyOf extracts the lodged sub-composition: tourists plus categories that
// require lodging.
func PartyOf(catalog *types.Catalog, comp types.Composition) Party {
	p := Party{roles: make(map[types.CategoryCode]types.OccupantRole)}
	for _, e := range comp.Entries() {
		cat, ok := catalog.Get(e.Category)
		if !ok {
			cat = types.PassengerCategory{Code: e.Category, Group: types.GroupTourist}
		}
		if !cat.Lodged() {
			continue
		}
		role := cat.OccupantRole()
		p.roles[e.Category] = role
		p.Members = p.Members.Add(e.Category, e.Count)
		if role == types.OccupantChild {
			p.Children += e.Count
		} else {
			p.Adults += e.Count
		}
	}
	return p
}

// remainder maps uncovered adult and child counts back onto categories,
// taking the last members of each role first.
func (p Party) remainder(adults, children int) types.Composition {
	var out types.Composition
	entries := p.Members.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		need := &adults
		if p.roles[e.Category] == types.OccupantChild {
			need = &children
		}
		n := e.Count
		if n > *need {
			n = *need
		}
		*need -= n
		out = out.Add(e.Category, n)
	}
	// restore composition order
	var ordered types.Composition
	for _, e := range entries {
		ordered = ordered.Add(e.Category, out.Count(e.Category))
	}
	return ordered
}

// Allocation is the outcome of one room allocation
type Allocation struct {
	Rooms     []types.AllocatedRoom
	Cost      decimal.Decimal
	Covered   bool
	Optimal   bool
	Override  bool
	Uncovered types.Composition

	// Problems are pricing issues met while costing rooms
	Problems []error
}

// option is one way to fill one room
type option struct {
	room     types.RoomCategory
	bed      types.BedType
	adults   int
	children int
	cost     decimal.Decimal
	unused   int
}

func (o option) size() int { return o.adults + o.children }

// Allocator solves room allocations
type Allocator struct {
	limit int
}

// NewAllocator creates an allocator. Parties larger than limit are reduced
// greedily before the exact search.
func NewAllocator(limit int) *Allocator {
	if limit <= 0 {
		limit = DefaultExhaustiveLimit
	}
	return &Allocator{limit: limit}
}

// Allocate places party into rooms of acc. A non-nil error is a coverage
// error; the returned allocation then holds the best partial placement.
func (a *Allocator) Allocate(acc *types.Accommodation, party Party, pricer Pricer) (Allocation, error) {
	if party.Size() == 0 {
		return Allocation{Covered: true, Optimal: true, Cost: decimal.Zero}, nil
	}

	opts, problems := buildOptions(acc, pricer)
	res := Allocation{Optimal: true, Problems: problems}

	ra, rc := party.Adults, party.Children
	var chosen []option

	if party.Size() > a.limit {
		res.Optimal = false
		for ra+rc > a.limit {
			o, ok := greedyPick(opts, ra, rc)
			if !ok {
				break
			}
			chosen = append(chosen, o)
			ra -= o.adults
			rc -= o.children
		}
	}

	exact, doneA, doneC := solve(opts, ra, rc)
	chosen = append(chosen, exact...)
	res.Rooms, res.Cost = materialize(chosen)

	uncoveredA, uncoveredC := ra-doneA, rc-doneC
	if uncoveredA == 0 && uncoveredC == 0 {
		res.Covered = true
		return res, nil
	}

	res.Uncovered = party.remainder(uncoveredA, uncoveredC)
	return res, errors.Coverage("no room combination of %s houses %s", accName(acc), res.Uncovered).
		WithContext("accommodation", acc.ID).
		WithContext("uncovered", res.Uncovered.String())
}

// ApplyDemand validates a caller supplied layout and prices it verbatim
func (a *Allocator) ApplyDemand(acc *types.Accommodation, party Party, demand *types.RoomDemand, pricer Pricer) (Allocation, error) {
	res := Allocation{Optimal: true, Override: true}
	adults, children := 0, 0
	var chosen []option

	for i, entry := range demand.Rooms {
		room, bed, err := findRoom(acc, entry)
		if err != nil {
			return res, errors.Wrapf(errors.TypeCoverage, err, "room demand entry %d", i+1)
		}
		if entry.Quantity <= 0 {
			return res, errors.Coverage("room demand entry %d has quantity %d", i+1, entry.Quantity)
		}
		occupants := entry.Adults + entry.Children
		if occupants <= 0 {
			return res, errors.Coverage("room demand entry %d has no occupants", i+1)
		}
		cost, perr := pricer.StayCost(room, bed, occupants)
		if perr != nil {
			res.Problems = append(res.Problems, perr)
		}
		for q := 0; q < entry.Quantity; q++ {
			chosen = append(chosen, option{room: room, bed: bed, adults: entry.Adults, children: entry.Children, cost: cost})
		}
		adults += entry.Adults * entry.Quantity
		children += entry.Children * entry.Quantity
	}

	res.Rooms, res.Cost = materialize(chosen)

	if adults == party.Adults && children == party.Children {
		res.Covered = true
		return res, nil
	}
	if adults < party.Adults || children < party.Children {
		res.Uncovered = party.remainder(max(party.Adults-adults, 0), max(party.Children-children, 0))
	}
	return res, errors.Coverage("room demand places %d adults and %d children, party has %d and %d",
		adults, children, party.Adults, party.Children)
}

func findRoom(acc *types.Accommodation, entry types.RoomDemandEntry) (types.RoomCategory, types.BedType, error) {
	for _, room := range acc.Rooms {
		if entry.Room != "" && entry.Room != room.ID && entry.Room != room.Code {
			continue
		}
		for _, bed := range room.BedTypes {
			if bed.Code == entry.BedType {
				return room, bed, nil
			}
		}
		if entry.Room != "" {
			return room, types.BedType{}, fmt.Errorf("room %s has no bed type %q", entry.Room, entry.BedType)
		}
	}
	if entry.Room != "" {
		return types.RoomCategory{}, types.BedType{}, fmt.Errorf("unknown room %q", entry.Room)
	}
	return types.RoomCategory{}, types.BedType{}, fmt.Errorf("no room offers bed type %q", entry.BedType)
}

// capacity is the largest party a room accepts
func capacity(room types.RoomCategory) int {
	if room.MaxOccupancy > 0 {
		return room.MaxOccupancy
	}
	best := 0
	for _, b := range room.BedTypes {
		if b.BaseOccupancy > best {
			best = b.BaseOccupancy
		}
	}
	return best
}

// Fits reports whether a room accepts the given occupants
func Fits(room types.RoomCategory, adults, children int) bool {
	n := adults + children
	if n < 1 || n < room.MinOccupancy || n > capacity(room) {
		return false
	}
	if adults < room.MinAdults {
		return false
	}
	if room.MaxAdults > 0 && adults > room.MaxAdults {
		return false
	}
	return children <= room.MaxChildren
}

func buildOptions(acc *types.Accommodation, pricer Pricer) ([]option, []error) {
	rooms := make([]types.RoomCategory, len(acc.Rooms))
	copy(rooms, acc.Rooms)
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].SortOrder != rooms[j].SortOrder {
			return rooms[i].SortOrder < rooms[j].SortOrder
		}
		return rooms[i].ID < rooms[j].ID
	})

	var opts []option
	var problems []error
	seen := make(map[string]bool)
	for _, room := range rooms {
		size := capacity(room)
		for _, bed := range room.BedTypes {
			costs := make(map[int]decimal.Decimal)
			for n := 1; n <= size; n++ {
				cost, err := pricer.StayCost(room, bed, n)
				if err != nil && !seen[err.Error()] {
					seen[err.Error()] = true
					problems = append(problems, err)
				}
				costs[n] = cost
			}
			for adults := size; adults >= 0; adults-- {
				for children := 0; adults+children <= size; children++ {
					if !Fits(room, adults, children) {
						continue
					}
					opts = append(opts, option{
						room: room, bed: bed,
						adults: adults, children: children,
						cost:   costs[adults+children],
						unused: size - adults - children,
					})
				}
			}
		}
	}
	return opts, problems
}

// key orders candidate solutions: cost, then rooms, then unused capacity
type key struct {
	cost   decimal.Decimal
	rooms  int
	unused int
}

func (k key) less(o key) bool {
	if c := k.cost.Cmp(o.cost); c != 0 {
		return c < 0
	}
	if k.rooms != o.rooms {
		return k.rooms < o.rooms
	}
	return k.unused < o.unused
}

type cell struct {
	ok     bool
	key    key
	choice int
}

// solve finds the cheapest exact cover of (adults, children). When no exact
// cover exists it returns the cheapest cover of the largest coverable subset.
func solve(opts []option, adults, children int) ([]option, int, int) {
	width := children + 1
	dp := make([]cell, (adults+1)*width)
	dp[0] = cell{ok: true, key: key{cost: decimal.Zero}, choice: -1}

	for a := 0; a <= adults; a++ {
		for c := 0; c <= children; c++ {
			if a == 0 && c == 0 {
				continue
			}
			cur := &dp[a*width+c]
			for i, o := range opts {
				if o.adults > a || o.children > c {
					continue
				}
				prev := dp[(a-o.adults)*width+c-o.children]
				if !prev.ok {
					continue
				}
				cand := key{cost: prev.key.cost.Add(o.cost), rooms: prev.key.rooms + 1, unused: prev.key.unused + o.unused}
				if !cur.ok || cand.less(cur.key) {
					*cur = cell{ok: true, key: cand, choice: i}
				}
			}
		}
	}

	bestA, bestC := adults, children
	if !dp[adults*width+children].ok {
		bestA, bestC = 0, 0
		bestN := 0
		for a := adults; a >= 0; a-- {
			for c := children; c >= 0; c-- {
				cl := dp[a*width+c]
				if !cl.ok || a+c < bestN {
					continue
				}
				if a+c > bestN || cl.key.less(dp[bestA*width+bestC].key) {
					bestA, bestC, bestN = a, c, a+c
				}
			}
		}
	}

	var out []option
	a, c := bestA, bestC
	for a > 0 || c > 0 {
		o := opts[dp[a*width+c].choice]
		out = append(out, o)
		a -= o.adults
		c -= o.children
	}
	return out, bestA, bestC
}

// greedyPick takes the largest room that fits, cheapest per person first.
// Rooms that would leave too few adults for the remaining children are
// skipped while a safe room exists.
func greedyPick(opts []option, adults, children int) (option, bool) {
	best, fallback := -1, -1
	for i, o := range opts {
		if o.adults > adults || o.children > children {
			continue
		}
		if fallback < 0 || better(o, opts[fallback]) {
			fallback = i
		}
		if adultsNeeded(opts, children-o.children) > adults-o.adults {
			continue
		}
		if best < 0 || better(o, opts[best]) {
			best = i
		}
	}
	if best < 0 {
		best = fallback
	}
	if best < 0 {
		return option{}, false
	}
	return opts[best], true
}

// better orders greedy candidates: larger rooms first, then lower cost per person
func better(o, b option) bool {
	if o.size() != b.size() {
		return o.size() > b.size()
	}
	return o.cost.Mul(decimal.NewFromInt(int64(b.size()))).LessThan(b.cost.Mul(decimal.NewFromInt(int64(o.size()))))
}

// adultsNeeded is a lower bound on the adults required to lodge children,
// taken from the room option with the fewest adults per child.
func adultsNeeded(opts []option, children int) int {
	if children <= 0 {
		return 0
	}
	need := -1
	for _, o := range opts {
		if o.children == 0 {
			continue
		}
		n := (children*o.adults + o.children - 1) / o.children
		if need < 0 || n < need {
			need = n
		}
	}
	if need < 0 {
		// no room takes children
		return 0
	}
	return need
}

func materialize(chosen []option) ([]types.AllocatedRoom, decimal.Decimal) {
	sort.SliceStable(chosen, func(i, j int) bool {
		a, b := chosen[i], chosen[j]
		if a.room.SortOrder != b.room.SortOrder {
			return a.room.SortOrder < b.room.SortOrder
		}
		if a.room.ID != b.room.ID {
			return a.room.ID < b.room.ID
		}
		if a.bed.Code != b.bed.Code {
			return a.bed.Code < b.bed.Code
		}
		if a.adults != b.adults {
			return a.adults > b.adults
		}
		return a.children > b.children
	})

	total := decimal.Zero
	rooms := make([]types.AllocatedRoom, 0, len(chosen))
	for _, o := range chosen {
		rooms = append(rooms, types.AllocatedRoom{
			RoomCategoryID: o.room.ID,
			RoomCode:       o.room.Code,
			BedType:        o.bed.Code,
			Adults:         o.adults,
			Children:       o.children,
			Cost:           o.cost,
		})
		total = total.Add(o.cost)
	}
	return rooms, total
}

func accName(acc *types.Accommodation) string {
	if acc.Name != "" {
		return acc.Name
	}
	return acc.ID
}
