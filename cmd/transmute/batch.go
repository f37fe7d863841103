package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flanksource/transmute/batch"
	"github.com/flanksource/transmute/report"
	"github.com/flanksource/transmute/shutdown"
)

func newBatchCommand(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "batch <input-dir>",
		Short: "Convert every supported file in a directory to one format",
		Long: `Convert every file under input-dir that can become the target format.
Files are processed one at a time in name order. A failed file never stops the
batch. Ctrl+C stops after the current file, a second Ctrl+C exits at once.`,
		Example: `  transmute batch ./scans --to pdf
  transmute batch ./music --to mp3 --output-dir ./mp3 --cap 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			target, ok := c.Formats().Parse(to)
			if !ok {
				return fmt.Errorf("unknown format %q", to)
			}

			ctx, stop := shutdown.WithSignals(context.Background())
			defer stop()
			summary, err := c.Batch(ctx, batch.Options{
				InputDir:  args[0],
				OutputDir: a.cfg.OutputDir,
				Target:    target,
			})
			if err != nil {
				return err
			}
			if err := a.write(report.Batch(summary)); err != nil {
				return err
			}
			if summary.HasFailures() {
				return fmt.Errorf("%d of %d conversions failed", summary.Failed, summary.Attempted())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
