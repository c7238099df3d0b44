// Package tariff projects computed grids into client facing price lists and
// analyses the margin of selling prices set by hand.
package tariff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tripcost/core/types"
	"tripcost/internal/errors"
)

// Mode selects how a tariff presents prices
type Mode string

const (
	// ModePerPerson lists one price per person for each pax count
	ModePerPerson Mode = "per_person"

	// ModePerGroup lists the total group price for each pax count
	ModePerGroup Mode = "per_group"

	// ModeBands lists one price per person for each pax band
	ModeBands Mode = "bands"

	// ModeList lists prices for an enumerated set of pax counts
	ModeList Mode = "list"
)

// Valid reports whether the mode is known
func (m Mode) Valid() bool {
	switch m {
	case ModePerPerson, ModePerGroup, ModeBands, ModeList:
		return true
	}
	return false
}

// Band is an inclusive pax range
type Band struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Label string `json:"label,omitempty"`
}

// Contains reports whether pax falls in the band
func (b Band) Contains(pax int) bool {
	return b.Min <= pax && pax <= b.Max
}

// Options configures a projection
type Options struct {
	Mode Mode `json:"mode"`

	// Bands is used by ModeBands
	Bands []Band `json:"bands,omitempty"`

	// Pax is the enumerated counts used by ModeList
	Pax []int `json:"pax,omitempty"`

	// IncludeVAT shows prices with VAT
	IncludeVAT bool `json:"include_vat,omitempty"`

	// Step rounds displayed prices up to a multiple of it; zero keeps cents
	Step decimal.Decimal `json:"step"`
}

// Entry is one line of a public tariff
type Entry struct {
	Label  string          `json:"label"`
	PaxMin int             `json:"pax_min"`
	PaxMax int             `json:"pax_max"`
	Price  decimal.Decimal `json:"price"`

	// PerPerson is set when Price is a per-person amount
	PerPerson bool `json:"per_person"`
}

// View is a public projection of a grid. It carries no cost or profit.
type View struct {
	ProfileID  string   `json:"profile_id"`
	Mode       Mode     `json:"mode"`
	Currency   string   `json:"currency"`
	IncludeVAT bool     `json:"include_vat"`
	Entries    []Entry  `json:"entries"`
	Missing    []int    `json:"missing,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// Project builds the public tariff of a grid
func Project(grid *types.Grid, opts Options) (*View, error) {
	if grid == nil {
		return nil, errors.Input("no grid to project")
	}
	if !opts.Mode.Valid() {
		return nil, errors.Newf(errors.TypeInput, "unknown tariff mode %q", opts.Mode)
	}

	v := &View{
		ProfileID:  grid.ProfileID,
		Mode:       opts.Mode,
		Currency:   string(grid.Currency),
		IncludeVAT: opts.IncludeVAT,
	}
	if grid.Incomplete() {
		v.Notes = append(v.Notes, "some prices are based on incomplete data")
	}

	switch opts.Mode {
	case ModePerPerson, ModePerGroup:
		perPerson := opts.Mode == ModePerPerson
		for _, row := range grid.Rows {
			v.Entries = append(v.Entries, Entry{
				Label:     row.Label,
				PaxMin:    row.Pax,
				PaxMax:    row.Pax,
				Price:     roundUp(price(row, perPerson, opts.IncludeVAT), opts.Step),
				PerPerson: perPerson,
			})
		}

	case ModeList:
		counts := append([]int(nil), opts.Pax...)
		sort.Ints(counts)
		for _, pax := range counts {
			row, ok := grid.Row(pax)
			if !ok {
				v.Missing = append(v.Missing, pax)
				continue
			}
			v.Entries = append(v.Entries, Entry{
				Label:     fmt.Sprintf("%d pax", pax),
				PaxMin:    pax,
				PaxMax:    pax,
				Price:     roundUp(price(*row, true, opts.IncludeVAT), opts.Step),
				PerPerson: true,
			})
		}

	case ModeBands:
		if len(opts.Bands) == 0 {
			return nil, errors.Input("banded tariff without bands")
		}
		for _, band := range opts.Bands {
			if band.Max < band.Min {
				return nil, errors.Newf(errors.TypeInput, "band %d-%d is empty", band.Min, band.Max)
			}
			e, ok := bandEntry(grid, band, opts)
			if !ok {
				v.Missing = append(v.Missing, band.Min)
				continue
			}
			v.Entries = append(v.Entries, e)
		}
	}
	return v, nil
}

// bandEntry quotes a band at the highest per-person price inside it, so the
// displayed price holds for every group size of the band.
func bandEntry(grid *types.Grid, band Band, opts Options) (Entry, bool) {
	found := false
	highest := decimal.Zero
	for _, row := range grid.Rows {
		if !band.Contains(row.Pax) {
			continue
		}
		p := price(row, true, opts.IncludeVAT)
		if !found || p.GreaterThan(highest) {
			highest = p
		}
		found = true
	}
	label := band.Label
	if label == "" {
		label = fmt.Sprintf("%d-%d pax", band.Min, band.Max)
	}
	return Entry{
		Label:     label,
		PaxMin:    band.Min,
		PaxMax:    band.Max,
		Price:     roundUp(highest, opts.Step),
		PerPerson: true,
	}, found
}

func price(row types.GridRow, perPerson, withVAT bool) decimal.Decimal {
	r := row.Result
	total := r.TotalPrice
	if withVAT {
		total = r.PriceWithVAT
	}
	if !perPerson {
		return total
	}
	if r.PaxCount <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(r.PaxCount))).Round(2)
}

// roundUp rounds d up to a multiple of step
func roundUp(d, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return d.Round(2)
	}
	return d.Div(step).Ceil().Mul(step)
}
