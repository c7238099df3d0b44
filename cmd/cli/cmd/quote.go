// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tripcost/core/output"
	"tripcost/internal/config"
	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

var (
	profileID    string
	outputFormat string
	showDetails  bool
	refresh      bool
	noStore      bool
	timeout      time.Duration
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote <snapshot>",
	Short: "Compute the price grid of a cotation profile",
	Long: `Compute the cost, price and margin grid of a profile.

Range profiles produce one row per passenger count; custom profiles one row
for their composition. A grid computed from identical inputs is served from
the cache or the store unless --refresh is given.

Examples:
  tripcost quote trip.hcl --profile range
  tripcost quote trip.hcl --profile family --details
  tripcost quote trip.json --format json --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	addProfileFlags(quoteCmd)
	quoteCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, json, markdown)")
	quoteCmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show the per-day breakdown of every row")
}

// addProfileFlags registers the flags shared by commands that compute a grid
func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "profile ID (optional when the snapshot has one profile)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when an up-to-date grid exists")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not read or write the cotation store")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the computation after this duration")
}

// computeContext is cancelled by Ctrl-C and by --timeout
func computeContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() { cancel(); stop() }
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, cancel := computeContext()
	defer cancel()

	cfg := config.Get()
	format := outputFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	formatter, err := output.New(output.Format(format), output.Options{
		Breakdown: showDetails || cfg.Output.ShowBreakdown,
	})
	if err != nil {
		return err
	}

	s, err := openSession(ctx, args[0], profileID, sessionOptions{persist: !noStore, cached: true})
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	grid, origin, err := s.grid(ctx, refresh)
	if err != nil && !(grid != nil && errors.IsType(err, errors.TypeCancelled)) {
		return err
	}
	s.log.Info("quote ready",
		logging.Profile(s.in.Profile.ID),
		zap.String("origin", string(origin)),
		zap.Int("rows", len(grid.Rows)),
		zap.Duration("duration", time.Since(start)))

	if renderErr := formatter.RenderGrid(cmd.OutOrStdout(), grid); renderErr != nil {
		return renderErr
	}
	if origin != OriginComputed && formatter.Format() == output.FormatTable {
		fmt.Fprintf(cmd.ErrOrStderr(), "(grid from %s, fingerprint %s)\n", origin, short(grid.Fingerprint))
	}
	return err
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
