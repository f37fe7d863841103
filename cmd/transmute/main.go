package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/flanksource/transmute"
	"github.com/flanksource/transmute/config"
	"github.com/flanksource/transmute/report"
	"github.com/flanksource/transmute/shutdown"
)

// Build information (set by goreleaser)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCommand()
	err := rootCmd.Execute()
	shutdown.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what PersistentPreRunE resolved for the running command.
type app struct {
	cfg config.Options
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "transmute",
		Short: "Convert documents, spreadsheets, images, video and audio between formats",
		Long: `transmute converts files between document, spreadsheet, image, vector,
video and audio formats. Each conversion tries the best available tool first and
falls back to the next one when it is missing or fails.

Settings are read from transmute.yaml (in . or ~/.config/transmute),
TRANSMUTE_* environment variables and flags, in increasing precedence.`,
		Example: `  transmute convert report.docx report.pdf
  transmute convert logo.svg --to png
  transmute batch ./photos --to webp --cap 100
  transmute conversions svg`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := transmute.Flags.UseFlags(); err != nil {
				return err
			}
			cfgFile, _ := cmd.Flags().GetString("config")
			v, err := config.NewViper(cmd.Flags(), cfgFile)
			if err != nil {
				return err
			}
			a.cfg, err = config.Load(v)
			return err
		},
	}

	transmute.BindAllFlags(rootCmd.PersistentFlags())
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newConvertCommand(a),
		newBatchCommand(a),
		newFormatsCommand(a),
		newConversionsCommand(a),
		newDoctorCommand(a),
		newInfoCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// converter builds a Converter for the loaded config and arranges for its
// browser and in-flight staging directories to be released on shutdown.
func (a *app) converter() (*transmute.Converter, error) {
	c, err := transmute.New(transmute.Options{Config: &a.cfg})
	if err != nil {
		return nil, err
	}
	shutdown.AddHookWithPriority("close browser", shutdown.PriorityBrowser, func() {
		if err := c.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	shutdown.AddHookWithPriority("remove staging dirs", shutdown.PriorityTempDirs, c.Engine().Cleanup)
	return c, nil
}

func (a *app) write(r report.Report) error {
	return report.NewWriter(transmute.Flags.Options).Write(os.Stdout, r)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(getVersionInfo())
		},
	}
}

func getVersionInfo() string {
	return fmt.Sprintf("transmute %s (commit: %s, built: %s, go: %s)",
		version, commit, date, runtime.Version())
}
