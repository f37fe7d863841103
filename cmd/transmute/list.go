package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/container"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/report"
)

func newFormatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			return a.write(report.Formats(c.Formats(), c.Registry()))
		},
	}
}

func newConversionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conversions [source-format]",
		Short: "List conversions and the strategies tried for each",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			var only formats.Format
			if len(args) == 1 {
				var ok bool
				if only, ok = c.Formats().Parse(args[0]); !ok {
					return fmt.Errorf("unknown format %q", args[0])
				}
			}
			return a.write(report.Conversions(c.Registry(), only))
		},
	}
}

func newDoctorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Show which external tools were found",
		Long: `Show which external tools were found. Conversions whose preferred tool is
missing fall back to the next strategy, usually with lower fidelity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			runtime := capabilities.Status{Tool: "container-runtime"}
			if rt, err := container.Detect(context.Background(), exec.Default); err != nil {
				runtime.Reason = err.Error()
			} else {
				runtime.Available, runtime.Path = true, rt.Name()
			}
			return a.write(report.Capabilities(c.Capabilities(), runtime))
		},
	}
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <media-file>",
		Short: "Show duration, frame rate, size and streams of an audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.converter()
			if err != nil {
				return err
			}
			info, err := c.MediaInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(report.Media(args[0], info))
		},
	}
}
