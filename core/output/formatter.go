// Package output renders cotation grids and tariffs for humans and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tripcost/core/tariff"
	"tripcost/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatTable is a human-readable CLI table
	FormatTable Format = "table"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderGrid writes a cotation grid
	RenderGrid(w io.Writer, grid *types.Grid) error

	// RenderTariff writes a public tariff
	RenderTariff(w io.Writer, view *tariff.View) error
}

// Options tune human-readable output
type Options struct {
	// Breakdown adds the day and block detail of every row
	Breakdown bool
}

// New returns the formatter of a format
func New(format Format, opts Options) (Formatter, error) {
	switch format {
	case FormatTable, "":
		return &tableFormatter{opts: opts}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatMarkdown:
		return &markdownFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

type jsonFormatter struct{}

func (jsonFormatter) Format() Format { return FormatJSON }

func (jsonFormatter) RenderGrid(w io.Writer, grid *types.Grid) error {
	return writeJSON(w, grid)
}

func (jsonFormatter) RenderTariff(w io.Writer, view *tariff.View) error {
	return writeJSON(w, view)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type tableFormatter struct {
	opts Options
}

func (f *tableFormatter) Format() Format { return FormatTable }

func (f *tableFormatter) RenderGrid(w io.Writer, grid *types.Grid) error {
	fmt.Fprintf(w, "Cotation %s (%s, %s)\n", grid.ProfileID, grid.Mode, grid.Currency)
	if grid.Cancelled {
		fmt.Fprintln(w, "  computation cancelled: partial grid")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PAX\tCOST\tPRICE\tPROFIT\tCOST/PP\tPRICE/PP\tVAT\tPRICE+VAT\t")
	for _, row := range grid.Rows {
		r := row.Result
		mark := ""
		if r.Incomplete {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.Label, mark,
			r.TotalCost.StringFixed(2), r.TotalPrice.StringFixed(2), r.TotalProfit.StringFixed(2),
			r.CostPerPerson.StringFixed(2), r.PricePerPerson.StringFixed(2),
			r.VAT.StringFixed(2), r.PriceWithVAT.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range grid.Omitted {
		fmt.Fprintf(w, "  %d pax omitted: %s\n", o.Pax, o.Reason)
	}
	if grid.Incomplete() {
		fmt.Fprintln(w, "  * incomplete: see warnings")
	}

	for _, row := range grid.Rows {
		if f.opts.Breakdown {
			renderBreakdown(w, row)
		}
		for _, warn := range row.Result.Warnings {
			fmt.Fprintf(w, "  [%s] %s %s\n", row.Label, warn.Type, describeWarning(warn))
		}
	}
	return nil
}

func describeWarning(w types.Warning) string {
	var parts []string
	if w.BlockID != "" {
		parts = append(parts, "block "+w.BlockID)
	}
	if w.ItemID != "" {
		parts = append(parts, "item "+w.ItemID)
	}
	if len(parts) == 0 {
		return w.Message
	}
	return strings.Join(parts, " ") + ": " + w.Message
}

func renderBreakdown(w io.Writer, row types.GridRow) {
	fmt.Fprintf(w, "\n%s\n", row.Label)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, day := range row.Result.Days {
		fmt.Fprintf(tw, "  Day %d %s\t\t\t%s\n", day.Number, day.Title, day.Cost.StringFixed(2))
		for _, b := range day.Blocks {
			renderBlock(tw, b)
		}
	}
	for _, b := range row.Result.Transversal {
		fmt.Fprintf(tw, "  Trip\t\t\t\n")
		renderBlock(tw, b)
	}
	for _, ra := range row.Result.Rooms {
		for _, room := range ra.Rooms {
			fmt.Fprintf(tw, "    room %s/%s\t%dA %dC\t%d nights\t%s\n",
				room.RoomCategoryID, room.BedType, room.Adults, room.Children, ra.Nights, room.Cost.StringFixed(2))
		}
		if !ra.Covered {
			fmt.Fprintf(tw, "    uncovered\t%s\t\t\n", ra.Uncovered)
		}
	}
	tw.Flush()
}

func renderBlock(tw *tabwriter.Writer, b types.BlockCost) {
	cost := b.Cost.StringFixed(2)
	if !b.Known {
		cost = "unknown"
	}
	fmt.Fprintf(tw, "    %s\t%s\t\t%s\n", blockName(b), b.Kind, cost)
	for _, item := range b.Items {
		fmt.Fprintf(tw, "      %s\t%d x %s\t%s\t%s\n",
			itemName(item), item.Quantity, item.UnitCost.StringFixed(2), item.Source, item.Subtotal.StringFixed(2))
	}
	for _, ex := range b.Excluded {
		fmt.Fprintf(tw, "      %s\texcluded\t%s\t\n", ex.ItemID, ex.Reason)
	}
}

func blockName(b types.BlockCost) string {
	if b.Name != "" {
		return b.Name
	}
	return b.BlockID
}

func itemName(i types.ItemCost) string {
	if i.Name != "" {
		return i.Name
	}
	return i.ItemID
}

func (f *tableFormatter) RenderTariff(w io.Writer, view *tariff.View) error {
	fmt.Fprintf(w, "Tariff %s (%s, %s)\n\n", view.ProfileID, view.Mode, view.Currency)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range view.Entries {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", e.Label, e.Price.StringFixed(2), view.Currency, unitLabel(e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if view.IncludeVAT {
		fmt.Fprintln(w, "\nPrices include VAT.")
	}
	for _, n := range view.Notes {
		fmt.Fprintf(w, "Note: %s\n", n)
	}
	return nil
}

func unitLabel(e tariff.Entry) string {
	if e.PerPerson {
		return "per person"
	}
	return "per group"
}

type markdownFormatter struct{}

func (f *markdownFormatter) Format() Format { return FormatMarkdown }

func (f *markdownFormatter) RenderGrid(w io.Writer, grid *types.Grid) error {
	fmt.Fprintf(w, "## Cotation %s\n\n", grid.ProfileID)
	fmt.Fprintf(w, "| Pax | Cost | Price | Profit | Price / person |\n")
	fmt.Fprintf(w, "|---|---:|---:|---:|---:|\n")
	for _, row := range grid.Rows {
		r := row.Result
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n", row.Label,
			r.TotalCost.StringFixed(2), r.TotalPrice.StringFixed(2),
			r.TotalProfit.StringFixed(2), r.PricePerPerson.StringFixed(2))
	}
	if grid.Incomplete() {
		fmt.Fprintf(w, "\n> Some rows are incomplete.\n")
	}
	return nil
}

func (f *markdownFormatter) RenderTariff(w io.Writer, view *tariff.View) error {
	fmt.Fprintf(w, "## Tariff\n\n| Group | Price (%s) |\n|---|---:|\n", view.Currency)
	for _, e := range view.Entries {
		fmt.Fprintf(w, "| %s | %s %s |\n", e.Label, e.Price.StringFixed(2), unitLabel(e))
	}
	return nil
}
