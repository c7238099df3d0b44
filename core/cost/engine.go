package cost

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tripcost/core/conditions"
	"tripcost/core/pricing"
	"tripcost/core/quantity"
	"tripcost/core/rooms"
	"tripcost/core/tiers"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Request is one pricing computation
type Request struct {
	Composition types.Composition
	Selections  types.SelectionSet
	Rates       types.ExchangeRates

	// RoomDemand overrides the trip's room layout when set
	RoomDemand *types.RoomDemand
}

// run carries the per-request state of one Price call
type run struct {
	plan      *Plan
	req       Request
	filter    *conditions.Filter
	selector  *tiers.Selector
	calc      *quantity.Calculator
	allocator *rooms.Allocator
	converter *pricing.Converter
	party     rooms.Party

	result *types.PricingResult
}

// Price computes the cost, price and profit of a composition. Per-item
// problems become warnings on the result. A composition naming a category
// the catalog does not know is malformed input. A composition without
// pricing-relevant passengers returns the result together with a
// DIVISION_UNDEFINED error.
func (p *Plan) Price(req Request) (*types.PricingResult, error) {
	for _, e := range req.Composition.Entries() {
		if !p.catalog.Has(e.Category) {
			return nil, errors.Malformed("composition names unknown category %q", e.Category)
		}
	}

	r := &run{
		plan:      p,
		req:       req,
		filter:    conditions.NewFilter(p.trip.Conditions, req.Selections),
		selector:  tiers.NewSelector(p.catalog),
		calc:      quantity.NewCalculator(p.catalog),
		allocator: rooms.NewAllocator(p.roomLimit),
		converter: pricing.NewConverter(req.Rates, p.trip.DefaultCurrency),
		party:     rooms.PartyOf(p.catalog, req.Composition),
		result: &types.PricingResult{
			Composition: req.Composition,
			PaxCount:    p.catalog.PricingCount(req.Composition),
			HeadCount:   req.Composition.Total(),
			Currency:    p.trip.DefaultCurrency,
			Days:        make([]types.DayCost, 0, len(p.days)),
		},
	}

	total := decimal.Zero
	for d, day := range p.days {
		dc := types.DayCost{DayID: day.ID, Number: day.Number, Title: day.Title, Cost: decimal.Zero}
		for _, i := range p.order[d] {
			bc, ok := r.priceBlock(p.nodes[i])
			if !ok {
				continue
			}
			dc.Cost = dc.Cost.Add(bc.Cost)
			dc.Blocks = append(dc.Blocks, bc)
		}
		total = total.Add(dc.Cost)
		r.result.Days = append(r.result.Days, dc)
	}
	for _, i := range p.transversal {
		bc, ok := r.priceBlock(p.nodes[i])
		if !ok {
			continue
		}
		total = total.Add(bc.Cost)
		r.result.Transversal = append(r.result.Transversal, bc)
	}

	return r.result, r.finish(total)
}

// finish applies the margin policy and divides per person
func (r *run) finish(total decimal.Decimal) error {
	res := r.result
	trip := r.plan.trip

	res.TotalCost = total
	res.TotalPrice = ApplyMargin(total, trip.Margin)
	res.TotalProfit = res.TotalPrice.Sub(res.TotalCost)
	res.VAT = VAT(res.TotalPrice, res.TotalProfit, trip.VATPct, trip.VATMode)
	res.PriceWithVAT = res.TotalPrice.Add(res.VAT)

	costPP, pricePP, err := PerPerson(res.TotalCost, res.TotalPrice, res.PaxCount)
	if err != nil {
		return err
	}
	res.CostPerPerson = costPP
	res.PricePerPerson = pricePP
	return nil
}

func (r *run) warn(t errors.Type, blockID, itemID string, err error) {
	msg := err.Error()
	var e *errors.Error
	if errors.As(err, &e) {
		t = e.Type
		msg = e.Message
		if e.Cause != nil {
			msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
	}
	if t == errors.TypeMissingRate {
		r.result.Incomplete = true
	}
	r.result.Warnings = append(r.result.Warnings, types.Warning{Type: t, BlockID: blockID, ItemID: itemID, Message: msg})
}

// priceBlock prices the items of one block. Text blocks carry no cost.
func (r *run) priceBlock(n node) (types.BlockCost, bool) {
	b := n.block
	switch b.Kind {
	case types.BlockText:
		return types.BlockCost{}, false
	case types.BlockActivity, types.BlockAccommodation:
	default:
		return types.BlockCost{}, false
	}

	bc := types.BlockCost{BlockID: b.ID, Name: b.Name, Kind: b.Kind, Cost: decimal.Zero, Known: true}
	for k := range b.Items {
		item := &b.Items[k]

		d := r.filter.Evaluate(item, n.condition, b.Kind)
		if d.Unknown {
			r.warn(errors.TypeConfiguration, b.ID, item.ID, errors.Configuration("%s", d.Reason))
		}
		if !d.Included {
			bc.Excluded = append(bc.Excluded, types.ExcludedItem{ItemID: item.ID, Name: item.Name, Reason: d.Reason})
			continue
		}

		var ic types.ItemCost
		if acc, ok := r.accommodation(n, item); ok {
			ic = r.priceRooms(n, item, acc)
		} else {
			ic = r.priceItem(n, item)
		}

		bc.Items = append(bc.Items, ic)
		if !ic.Known {
			bc.Known = false
			continue
		}
		bc.Cost = bc.Cost.Add(ic.Subtotal)
	}
	if !bc.Known {
		r.result.Incomplete = true
	}
	return bc, true
}

func (r *run) accommodation(n node, item *types.LineItem) (*types.Accommodation, bool) {
	if n.block.Kind != types.BlockAccommodation || item.AccommodationID == "" {
		return nil, false
	}
	acc, ok := r.plan.accommodations[item.AccommodationID]
	if !ok {
		r.warn(errors.TypeConfiguration, n.block.ID, item.ID,
			errors.Configuration("accommodation %s not found, priced as a plain item", item.AccommodationID))
		return nil, false
	}
	return acc, true
}

// priceItem prices a line item from its rates, tiers and quantity rule
func (r *run) priceItem(n node, item *types.LineItem) types.ItemCost {
	blockID := n.block.ID
	comp := r.req.Composition

	res, err := pricing.ResolveItem(item, r.plan.serviceDate(n))
	fallback := err != nil
	if fallback {
		r.warn(errors.TypeConfiguration, blockID, item.ID, err)
		res = pricing.Resolution{UnitCost: item.UnitCost, Currency: item.Currency, Source: types.SourceBase}
	}

	q := r.calc.Compute(item.Quantity, comp, r.plan.span(n))
	for _, perr := range q.Problems {
		r.warn(errors.TypeConfiguration, blockID, item.ID, perr)
	}

	currency := res.Currency
	if currency == "" {
		currency = r.plan.trip.DefaultCurrency
	}

	ic := types.ItemCost{
		ItemID:        item.ID,
		Name:          item.Name,
		Source:        res.Source,
		SourceRef:     res.SourceRef(),
		LocalCurrency: currency,
		UnitCostLocal: res.UnitCost,
		Quantity:      q.Units,
		Known:         true,
	}

	usesTiers := !fallback && item.PricingMethod != types.PricingFixed &&
		(len(item.Tiers) > 0 || len(item.CategoryPrices) > 0)

	if !usesTiers {
		return r.convertUniform(ic, blockID, currency)
	}

	sel, err := r.selector.Select(item, comp, res.UnitCost)
	if err != nil {
		r.warn(errors.TypeConfiguration, blockID, item.ID, err)
	}
	ic.UnitCostLocal = sel.BaseCost
	if sel.Tier != nil {
		ic.Source = types.SourceTier
		ic.SourceRef = sel.Label()
	}

	perCategory := !sel.Uniform() && ratioKind(item.Quantity.Kind) && q.Per == 1
	if !perCategory {
		return r.convertUniform(ic, blockID, currency)
	}

	// one unit per matched person, each at its category cost
	ic.Source = types.SourceCategory
	rate, rerr := r.converter.Rate(currency)
	if rerr != nil {
		r.warn(errors.TypeMissingRate, blockID, item.ID, rerr)
		rate = decimal.NewFromInt(1)
	}
	ic.ExchangeRate = rate
	ic.UnitCost = r.convertAmount(sel.BaseCost, rate, rerr == nil)

	subtotal := decimal.Zero
	for _, code := range r.calc.Matches(item.Quantity, comp) {
		unit := r.convertAmount(sel.Categories[code], rate, rerr == nil)
		units := comp.Count(code) * q.Times
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(units))))
	}
	ic.Subtotal = subtotal
	return ic
}

func ratioKind(k types.QuantityKind) bool {
	return k == types.QuantityRatio || k == ""
}

func (r *run) convertAmount(amount, rate decimal.Decimal, ok bool) decimal.Decimal {
	if !ok || rate.Equal(decimal.NewFromInt(1)) {
		return amount
	}
	return roundMoney(amount.Mul(rate))
}

// convertUniform converts the unit cost and multiplies by the quantity
func (r *run) convertUniform(ic types.ItemCost, blockID string, currency types.Currency) types.ItemCost {
	unit, rate, err := r.converter.Convert(ic.UnitCostLocal, currency)
	if err != nil {
		r.warn(errors.TypeMissingRate, blockID, ic.ItemID, err)
	}
	ic.UnitCost = unit
	ic.ExchangeRate = rate
	ic.Subtotal = unit.Mul(decimal.NewFromInt(int64(ic.Quantity)))
	return ic
}

// priceRooms prices an accommodation item through the room allocator
func (r *run) priceRooms(n node, item *types.LineItem, acc *types.Accommodation) types.ItemCost {
	blockID := n.block.ID
	nights := r.plan.span(n)
	pricer := rooms.NewStayPricer(r.plan.serviceDate(n), nights, r.converter)

	demand := r.req.RoomDemand
	if demand == nil {
		demand = r.plan.trip.RoomDemand
	}

	var alloc rooms.Allocation
	var err error
	if demand != nil {
		alloc, err = r.allocator.ApplyDemand(acc, r.party, demand, pricer)
	} else {
		alloc, err = r.allocator.Allocate(acc, r.party, pricer)
	}
	for _, perr := range alloc.Problems {
		r.warn(errors.TypeConfiguration, blockID, item.ID, perr)
	}

	assignment := types.RoomAssignment{
		BlockID:         blockID,
		ItemID:          item.ID,
		AccommodationID: acc.ID,
		Nights:          nights,
		Rooms:           alloc.Rooms,
		Cost:            alloc.Cost,
		Covered:         alloc.Covered,
		Optimal:         alloc.Optimal,
		Override:        alloc.Override,
		Uncovered:       alloc.Uncovered,
	}
	r.result.Rooms = append(r.result.Rooms, assignment)

	// the whole stay is one unit; the rooms are listed on the assignment
	ic := types.ItemCost{
		ItemID:        item.ID,
		Name:          item.Name,
		Source:        types.SourceRooms,
		SourceRef:     acc.ID,
		LocalCurrency: r.plan.trip.DefaultCurrency,
		UnitCostLocal: alloc.Cost,
		ExchangeRate:  decimal.NewFromInt(1),
		UnitCost:      alloc.Cost,
		Quantity:      1,
		Subtotal:      alloc.Cost,
		Known:         true,
	}
	if err != nil {
		r.warn(errors.TypeCoverage, blockID, item.ID, err)
		ic.Known = false
	}
	return ic
}
