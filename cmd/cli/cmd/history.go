// Package cmd - fingerprint, history and compare commands
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tripcost/adapters/storage"
	"tripcost/core/cotation"
	"tripcost/internal/config"
)

var (
	historyLimit int
	compareLast  string
	compareJSON  bool
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <snapshot>",
	Short: "Print the input fingerprint of a profile",
	Long: `Print the hash of every input that affects a profile's grid. Two
runs with the same fingerprint produce identical grids.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], profileID, sessionOptions{})
		if err != nil {
			return err
		}
		defer s.Close()
		fp, err := cotation.Fingerprint(s.in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fp)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [profile]",
	Short: "List stored cotations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := storage.Open(ctx, config.Get().Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		filter := &storage.ListFilter{Limit: historyLimit}
		if len(args) == 1 {
			filter.ProfileID = args[0]
		}
		results, err := store.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored cotations.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROFILE\tTRIP\tROWS\tCREATED\tFINGERPRINT")
		for _, c := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", c.ID, c.ProfileID, c.TripID,
				len(c.Grid.Rows), c.CreatedAt.Local().Format(time.DateTime), short(c.Fingerprint))
		}
		return w.Flush()
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [old-id new-id]",
	Short: "Compare two stored cotations",
	Long: `Compare the selling price of two stored cotations row by row.

Examples:
  tripcost compare 1b4e28ba-... 6fa459ea-...
  tripcost compare --latest range`,
	Args: func(cmd *cobra.Command, args []string) error {
		if compareLast != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runCompare,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of cotations listed")

	fingerprintCmd.Flags().StringVarP(&profileID, "profile", "p", "", "profile ID (optional when the snapshot has one profile)")

	compareCmd.Flags().StringVar(&compareLast, "latest", "", "compare the two most recent cotations of a profile")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the comparison as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := storage.Open(ctx, config.Get().Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	var oldC, newC *storage.StoredCotation
	if compareLast != "" {
		recent, err := store.List(ctx, &storage.ListFilter{ProfileID: compareLast, Limit: 2})
		if err != nil {
			return err
		}
		if len(recent) < 2 {
			return fmt.Errorf("profile %s has fewer than two stored cotations", compareLast)
		}
		newC, oldC = recent[0], recent[1]
	} else {
		if oldC, err = store.Get(ctx, args[0]); err != nil {
			return err
		}
		if newC, err = store.Get(ctx, args[1]); err != nil {
			return err
		}
	}

	res, err := storage.Compare(oldC, newC)
	if err != nil {
		return err
	}
	if compareJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s -> %s\n\n", oldC.ID, newC.ID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PAX\tOLD\tNEW\tDELTA\t%\t")
	for _, d := range res.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", d.Pax,
			d.OldPrice.StringFixed(2), d.NewPrice.StringFixed(2), d.Delta.StringFixed(2), d.DeltaPercent.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(res.Added) > 0 {
		fmt.Fprintf(out, "added: %v pax\n", res.Added)
	}
	if len(res.Removed) > 0 {
		fmt.Fprintf(out, "removed: %v pax\n", res.Removed)
	}
	if !res.Changed() {
		fmt.Fprintln(out, "no price change")
	}
	return nil
}
