package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatorapp/curator-server/internal/parity"
)

var errMismatch = errors.New("datasets are not at parity")

func newParityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parity",
		Short: "Compare base and working seed datasets",
		Long: `Parity compares every dataset file (<name>.json or <name>.toml) in a base
directory against the same dataset in a working directory. Key order in
objects is ignored; array order is not.

Exit codes: 0 all datasets match, 1 at least one mismatch, 2 a file could
not be read or parsed.`,
	}

	var base, working string
	cmd.PersistentFlags().StringVar(&base, "base", "", "base dataset directory (required)")
	cmd.PersistentFlags().StringVar(&working, "working", "", "working dataset directory (required)")
	_ = cmd.MarkPersistentFlagRequired("base")
	_ = cmd.MarkPersistentFlagRequired("working")

	var asJSON bool
	check := &cobra.Command{
		Use:   "check [datasets...]",
		Short: "Check datasets once",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := parity.NewChecker(base, working, newLogger(cmd.ErrOrStderr()))
			report, err := checker.Check(cmd.Context(), args...)
			if err != nil {
				return withExitCode(ExitError, err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return withExitCode(ExitError, err)
				}
			} else {
				printReport(newPrinter(cmd.OutOrStdout(), !noColor), report)
			}

			if !report.Match() {
				return withExitCode(ExitMismatch, errMismatch)
			}
			return nil
		},
	}
	check.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	var debounce time.Duration
	watch := &cobra.Command{
		Use:   "watch [datasets...]",
		Short: "Re-check datasets whenever their files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := newPrinter(cmd.OutOrStdout(), !noColor)
			checker := parity.NewChecker(base, working, newLogger(cmd.ErrOrStderr()))
			err := checker.Watch(ctx, parity.WatchOptions{Debounce: debounce, Datasets: args},
				func(report *parity.Report, err error) {
					if err != nil {
						p.fail.Fprintf(p.w, "Error: %v\n", err)
						return
					}
					printReport(p, report)
				})
			if err != nil && !errors.Is(err, context.Canceled) {
				return withExitCode(ExitError, err)
			}
			return nil
		},
	}
	watch.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "quiet period before re-checking")

	cmd.AddCommand(check, watch)
	return cmd
}

func printReport(p *printer, report *parity.Report) {
	p.Header("Parity check at %s", report.CheckedAt.Format(time.RFC3339))
	for _, res := range report.Results {
		if res.Match() {
			p.Success("%s", res.Dataset)
			continue
		}
		p.Mismatch("%s", res.String())
	}
	mismatches := len(report.Mismatches())
	if mismatches == 0 {
		p.Info("%d dataset(s), all at parity", len(report.Results))
		return
	}
	p.Info("%d dataset(s), %d mismatch(es)", len(report.Results), mismatches)
}
