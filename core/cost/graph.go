// Package cost walks a trip's day and block tree and aggregates the cost,
// price and profit of a passenger composition.
package cost

import (
	"sort"
	"time"

	"tripcost/core/rooms"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// node is one block of the compiled arena. Inherited attributes are resolved.
type node struct {
	block       *types.Block
	parent      int
	day         int // index into Plan.days, -1 for transversal blocks
	transversal bool
	condition   string
	depth       int
}

// Plan is an immutable, validated view of a trip. It is safe for concurrent use.
type Plan struct {
	trip    *types.Trip
	catalog *types.Catalog

	days  []types.Day
	nodes []node

	// order lists node indexes per day, pre-order by sort order
	order       [][]int
	transversal []int

	accommodations map[string]*types.Accommodation

	roomLimit int
}

// Option configures plan compilation
type Option func(*Plan)

// WithRoomLimit sets the largest party the room allocator solves exactly
func WithRoomLimit(n int) Option {
	return func(p *Plan) {
		if n > 0 {
			p.roomLimit = n
		}
	}
}

// Compile validates the trip tree once and builds its plan. A block that
// references a missing parent or day, or a parent cycle, is malformed input.
func Compile(trip *types.Trip, catalog *types.Catalog, opts ...Option) (*Plan, error) {
	if trip == nil {
		return nil, errors.Malformed("no trip")
	}
	if catalog == nil {
		return nil, errors.Malformed("trip %s: no passenger catalog", trip.ID)
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	p := &Plan{
		trip:           trip,
		catalog:        catalog,
		accommodations: make(map[string]*types.Accommodation, len(trip.Accommodations)),
		roomLimit:      rooms.DefaultExhaustiveLimit,
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range trip.Accommodations {
		acc := &trip.Accommodations[i]
		p.accommodations[acc.ID] = acc
	}

	dayIndex, err := p.indexDays()
	if err != nil {
		return nil, err
	}
	if err := p.buildNodes(dayIndex); err != nil {
		return nil, err
	}
	p.buildOrder()
	return p, nil
}

func validateTrip(trip *types.Trip) error {
	if trip.DefaultCurrency == "" {
		return errors.Malformed("trip %s has no default currency", trip.ID)
	}
	if !trip.VATMode.Valid() {
		return errors.Malformed("trip %s: unknown VAT mode %q", trip.ID, trip.VATMode)
	}
	m := trip.Margin
	if m.Type != "" && !m.Type.Valid() {
		return errors.Malformed("trip %s: unknown margin type %q", trip.ID, m.Type)
	}
	if m.Type == types.MarginOnPrice && m.Pct.GreaterThanOrEqual(hundred) {
		return errors.Malformed("trip %s: margin on price must stay below 100%%, got %s", trip.ID, m.Pct)
	}
	if m.Pct.IsNegative() {
		return errors.Malformed("trip %s: negative margin %s", trip.ID, m.Pct)
	}
	return nil
}

func (p *Plan) indexDays() (map[string]int, error) {
	p.days = make([]types.Day, len(p.trip.Days))
	copy(p.days, p.trip.Days)
	sort.SliceStable(p.days, func(i, j int) bool { return p.days[i].Number < p.days[j].Number })

	index := make(map[string]int, len(p.days))
	for i, d := range p.days {
		if _, dup := index[d.ID]; dup {
			return nil, errors.Malformed("duplicate day %s", d.ID)
		}
		if d.Number < 1 {
			return nil, errors.Malformed("day %s has number %d", d.ID, d.Number)
		}
		if d.NumberEnd != 0 && d.NumberEnd < d.Number {
			return nil, errors.Malformed("day %s ends before it starts", d.ID)
		}
		index[d.ID] = i
	}
	return index, nil
}

func (p *Plan) buildNodes(dayIndex map[string]int) error {
	blocks := p.trip.Blocks
	byID := make(map[string]int, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		if b.ID == "" {
			return errors.Malformed("block at position %d has no id", i)
		}
		if _, dup := byID[b.ID]; dup {
			return errors.Malformed("duplicate block %s", b.ID)
		}
		if !b.Kind.Valid() {
			return errors.Malformed("block %s has unknown kind %q", b.ID, b.Kind)
		}
		byID[b.ID] = i
	}

	p.nodes = make([]node, len(blocks))
	for i := range blocks {
		p.nodes[i] = node{block: &blocks[i], parent: -1, day: -1}
		if pid := blocks[i].ParentID; pid != "" {
			j, ok := byID[pid]
			if !ok {
				return errors.Malformed("block %s references missing parent %s", blocks[i].ID, pid)
			}
			p.nodes[i].parent = j
		}
	}

	// Resolve inheritance along each parent chain without recursion
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(p.nodes))
	for start := range p.nodes {
		var chain []int
		for i := start; i >= 0 && state[i] != done; i = p.nodes[i].parent {
			if state[i] == visiting {
				return errors.Malformed("block %s is part of a parent cycle", p.nodes[i].block.ID)
			}
			state[i] = visiting
			chain = append(chain, i)
		}
		for k := len(chain) - 1; k >= 0; k-- {
			if err := p.inherit(chain[k], dayIndex); err != nil {
				return err
			}
			state[chain[k]] = done
		}
	}
	return nil
}

func (p *Plan) inherit(i int, dayIndex map[string]int) error {
	n := &p.nodes[i]
	b := n.block
	dayID := b.DayID
	n.transversal = b.Transversal
	n.condition = b.ConditionID

	if n.parent >= 0 {
		parent := p.nodes[n.parent]
		n.depth = parent.depth + 1
		n.transversal = n.transversal || parent.transversal
		if n.condition == "" {
			n.condition = parent.condition
		}
		if dayID == "" && parent.day >= 0 {
			dayID = p.days[parent.day].ID
		}
	}

	if n.transversal {
		n.day = -1
		return nil
	}
	if dayID == "" {
		return errors.Malformed("block %s has no day and is not transversal", b.ID)
	}
	d, ok := dayIndex[dayID]
	if !ok {
		return errors.Malformed("block %s references missing day %s", b.ID, dayID)
	}
	n.day = d
	return nil
}

// buildOrder lays blocks out per day in pre-order, siblings by sort order
func (p *Plan) buildOrder() {
	children := make(map[int][]int)
	var roots []int
	for i, n := range p.nodes {
		if n.parent < 0 {
			roots = append(roots, i)
		} else {
			children[n.parent] = append(children[n.parent], i)
		}
	}

	less := func(list []int) {
		sort.SliceStable(list, func(a, b int) bool {
			x, y := p.nodes[list[a]].block, p.nodes[list[b]].block
			if x.SortOrder != y.SortOrder {
				return x.SortOrder < y.SortOrder
			}
			return x.ID < y.ID
		})
	}
	less(roots)
	for k := range children {
		less(children[k])
	}

	p.order = make([][]int, len(p.days))
	stack := make([]int, 0, len(p.nodes))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := p.nodes[i]
		if n.transversal {
			p.transversal = append(p.transversal, i)
		} else {
			p.order[n.day] = append(p.order[n.day], i)
		}

		kids := children[i]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, kids[k])
		}
	}
}

// Trip returns the compiled trip
func (p *Plan) Trip() *types.Trip {
	return p.trip
}

// Catalog returns the passenger catalog
func (p *Plan) Catalog() *types.Catalog {
	return p.catalog
}

// serviceDate is the date a block's items are priced at
func (p *Plan) serviceDate(n node) time.Time {
	if n.day < 0 {
		return p.trip.ServiceDate(1)
	}
	return p.trip.ServiceDate(p.days[n.day].Number)
}

// span is the number of days covered by a block
func (p *Plan) span(n node) int {
	if n.day < 0 {
		return 1
	}
	return p.days[n.day].Span()
}
