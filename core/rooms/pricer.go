package rooms

import (
	"time"

	"github.com/shopspring/decimal"

	"tripcost/core/pricing"
	"tripcost/core/types"
)

// StayPricer prices rooms night by night through the season rules of the
// bed type, then converts the stay into the selling currency.
type StayPricer struct {
	// Nights holds the service date of every night. Zero dates match no season.
	Nights []time.Time

	Converter *pricing.Converter
}

// NewStayPricer creates a pricer for nights consecutive nights from start
func NewStayPricer(start time.Time, nights int, converter *pricing.Converter) *StayPricer {
	if nights < 1 {
		nights = 1
	}
	p := &StayPricer{Nights: make([]time.Time, nights), Converter: converter}
	if !start.IsZero() {
		for i := range p.Nights {
			p.Nights[i] = types.TruncateDate(start).AddDate(0, 0, i)
		}
	}
	return p
}

// NightlyCost is the cost of one night for occupants, in the bed's currency
func NightlyCost(bed types.BedType, occupants int, date time.Time) (decimal.Decimal, error) {
	cost, _, err := pricing.ResolveCost(bed.NightlyCost, bed.Seasons, date)
	if extra := occupants - bed.BaseOccupancy; extra > 0 && bed.BaseOccupancy > 0 {
		cost = cost.Add(bed.ExtraPersonSupplement.Mul(decimal.NewFromInt(int64(extra))))
	}
	return cost, err
}

// StayCost implements Pricer
func (p *StayPricer) StayCost(room types.RoomCategory, bed types.BedType, occupants int) (decimal.Decimal, error) {
	var firstErr error
	total := decimal.Zero
	for _, night := range p.Nights {
		cost, err := NightlyCost(bed, occupants, night)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		total = total.Add(cost)
	}

	if p.Converter == nil {
		return total, firstErr
	}
	converted, _, err := p.Converter.Convert(total, bed.Currency)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	return converted, firstErr
}
