// Package cmd - tariff and analyze commands
package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tripcost/core/output"
	"tripcost/core/tariff"
	"tripcost/internal/config"
)

var (
	tariffMode   string
	tariffBands  []string
	tariffPax    []int
	tariffVAT    bool
	tariffStep   string
	tariffFormat string

	sellPrices []string
	sellGroups []string
)

var tariffCmd = &cobra.Command{
	Use:   "tariff <snapshot>",
	Short: "Print the public tariff of a profile",
	Long: `Project a profile's grid into a client facing price list. The tariff
shows selling prices only.

Examples:
  tripcost tariff trip.hcl --mode per_person
  tripcost tariff trip.hcl --mode bands --band 2-4 --band "5-8=Small group" --step 5
  tripcost tariff trip.hcl --mode list --pax 2,4,6,10 --vat`,
	Args: cobra.ExactArgs(1),
	RunE: runTariff,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <snapshot>",
	Short: "Analyse the margin of hand-set selling prices",
	Long: `Compare selling prices set by hand with the computed cost of each
passenger count, reporting margin, margin rate and the VAT forecast.

Prices are given as RANGE:AMOUNT, per person with --price and for the whole
group with --group-price.

Examples:
  tripcost analyze trip.hcl --price 2-4:750 --price 5-8:620
  tripcost analyze trip.hcl --group-price 10-12:6000`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addProfileFlags(tariffCmd)
	tariffCmd.Flags().StringVarP(&tariffMode, "mode", "m", string(tariff.ModePerPerson), "tariff mode (per_person, per_group, bands, list)")
	tariffCmd.Flags().StringArrayVar(&tariffBands, "band", nil, "pax band MIN-MAX[=LABEL], repeatable (bands mode)")
	tariffCmd.Flags().IntSliceVar(&tariffPax, "pax", nil, "pax counts to list (list mode)")
	tariffCmd.Flags().BoolVar(&tariffVAT, "vat", false, "show prices including VAT")
	tariffCmd.Flags().StringVar(&tariffStep, "step", "", "round prices up to a multiple of this amount")
	tariffCmd.Flags().StringVarP(&tariffFormat, "format", "f", "", "output format (table, json, markdown)")

	addProfileFlags(analyzeCmd)
	analyzeCmd.Flags().StringArrayVar(&sellPrices, "price", nil, "per-person selling price RANGE:AMOUNT, repeatable")
	analyzeCmd.Flags().StringArrayVar(&sellGroups, "group-price", nil, "group selling price RANGE:AMOUNT, repeatable")
}

// parseBand reads "2-4", "6" or "5-8=Small group"
func parseBand(s string) (tariff.Band, error) {
	spec, label, _ := strings.Cut(s, "=")
	lo, hi, found := strings.Cut(strings.TrimSpace(spec), "-")
	if !found {
		hi = lo
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(lo))
	to, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || from < 0 || to < from {
		return tariff.Band{}, fmt.Errorf("invalid band %q, expected MIN-MAX", s)
	}
	return tariff.Band{Min: from, Max: to, Label: strings.TrimSpace(label)}, nil
}

// parsePriceLine reads "2-4:750"
func parsePriceLine(s string, group bool) (tariff.PriceLine, error) {
	spec, amount, ok := strings.Cut(s, ":")
	if !ok {
		return tariff.PriceLine{}, fmt.Errorf("invalid price %q, expected RANGE:AMOUNT", s)
	}
	band, err := parseBand(spec)
	if err != nil {
		return tariff.PriceLine{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || d.IsNegative() {
		return tariff.PriceLine{}, fmt.Errorf("invalid amount in %q", s)
	}
	label := strings.TrimSpace(spec) + " pax"
	if group {
		label += " (group)"
	}
	return tariff.PriceLine{Label: label, Band: band, Amount: d, Group: group}, nil
}

func runTariff(cmd *cobra.Command, args []string) error {
	opts := tariff.Options{
		Mode:       tariff.Mode(tariffMode),
		Pax:        tariffPax,
		IncludeVAT: tariffVAT,
	}
	for _, b := range tariffBands {
		band, err := parseBand(b)
		if err != nil {
			return err
		}
		opts.Bands = append(opts.Bands, band)
	}
	if tariffStep != "" {
		step, err := decimal.NewFromString(tariffStep)
		if err != nil {
			return fmt.Errorf("invalid step %q", tariffStep)
		}
		opts.Step = step
	}

	format := tariffFormat
	if format == "" {
		format = config.Get().Output.DefaultFormat
	}
	formatter, err := output.New(output.Format(format), output.Options{})
	if err != nil {
		return err
	}

	ctx, cancel := computeContext()
	defer cancel()
	s, err := openSession(ctx, args[0], profileID, sessionOptions{persist: !noStore, cached: true})
	if err != nil {
		return err
	}
	defer s.Close()

	grid, _, err := s.grid(ctx, refresh)
	if err != nil {
		return err
	}
	view, err := tariff.Project(grid, opts)
	if err != nil {
		return err
	}
	return formatter.RenderTariff(cmd.OutOrStdout(), view)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var lines []tariff.PriceLine
	for _, p := range sellPrices {
		line, err := parsePriceLine(p, false)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	for _, p := range sellGroups {
		line, err := parsePriceLine(p, true)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return fmt.Errorf("give at least one --price or --group-price")
	}

	ctx, cancel := computeContext()
	defer cancel()
	s, err := openSession(ctx, args[0], profileID, sessionOptions{persist: !noStore, cached: true})
	if err != nil {
		return err
	}
	defer s.Close()

	grid, _, err := s.grid(ctx, refresh)
	if err != nil {
		return err
	}
	trip := s.in.Trip
	a, err := tariff.Analyze(grid, lines, trip.VATPct, trip.VATMode)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "LINE\tPAX\tSELLING\tCOST\tMARGIN\tMARGIN %\tVAT\t")
	for _, r := range a.Rows {
		mark := ""
		if r.Loss {
			mark = " LOSS"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s%s\t%s\t%s\t\n", r.Label, r.Pax,
			r.Selling.StringFixed(2), r.Cost.StringFixed(2), r.Margin.StringFixed(2), mark,
			r.MarginPct.StringFixed(2), r.VAT.StringFixed(2))
	}
	fmt.Fprintf(w, "total\t\t%s\t%s\t%s\t\t\t\n",
		a.TotalSelling.StringFixed(2), a.TotalCost.StringFixed(2), a.TotalMargin.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}
	if len(a.Uncovered) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nNo selling price for: %v pax\n", a.Uncovered)
	}
	return nil
}
