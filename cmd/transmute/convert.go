package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flanksource/transmute"
	"github.com/flanksource/transmute/report"
	"github.com/flanksource/transmute/shutdown"
)

func newConvertCommand(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Convert a single file",
		Long: `Convert a single file. The target format is taken from --to or from the
extension of output. Without an output path the file is written to the
configured output directory.`,
		Example: `  transmute convert notes.md notes.pdf
  transmute convert clip.mp4 --to gif --output-dir ./gifs`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			in := args[0]
			src, ok := c.FormatOf(in)
			if !ok {
				return fmt.Errorf("%s: unrecognized input format", in)
			}

			var dst transmute.Format
			if to != "" {
				if dst, ok = c.Formats().Parse(to); !ok {
					return fmt.Errorf("unknown format %q", to)
				}
			}
			out := ""
			if len(args) == 2 {
				out = args[1]
				if dst == "" {
					if dst, ok = c.FormatOf(out); !ok {
						return fmt.Errorf("%s: unrecognized output format, use --to", out)
					}
				}
			} else {
				if dst == "" {
					return fmt.Errorf("either an output path or --to is required")
				}
				out = c.OutputPath(in, a.cfg.OutputDir, dst)
			}

			ctx, stop := shutdown.WithSignals(context.Background())
			defer stop()
			res := c.ConvertFile(ctx, in, out, src, dst)
			if err := a.write(report.Conversion(res)); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("conversion failed: %s", res.ErrorMessage())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format, e.g. pdf, png, mp3")
	return cmd
}
