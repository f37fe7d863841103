package report

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatCSV    = "csv"
)

// Options controls how reports are written.
type Options struct {
	Format  string
	NoColor bool

	// Format-specific boolean flags (mutually exclusive)
	JSON   bool
	YAML   bool
	CSV    bool
	Pretty bool
}

// BindPFlags adds output flags to the provided pflag set (for cobra)
func BindPFlags(flags *pflag.FlagSet, options *Options) {
	flags.StringVar(&options.Format, "format", FormatPretty, "Output format: pretty, json, yaml, csv")
	flags.BoolVar(&options.NoColor, "no-color", false, "Disable colored output")

	flags.BoolVar(&options.JSON, "json", false, "Output in JSON format")
	flags.BoolVar(&options.YAML, "yaml", false, "Output in YAML format")
	flags.BoolVar(&options.CSV, "csv", false, "Output in CSV format")
	flags.BoolVar(&options.Pretty, "pretty", false, "Output in pretty format (default)")
}

// ResolveFormat resolves the output format from format-specific flags
func (options *Options) ResolveFormat() error {
	selected := map[string]bool{
		FormatJSON:   options.JSON,
		FormatYAML:   options.YAML,
		FormatCSV:    options.CSV,
		FormatPretty: options.Pretty,
	}
	count := 0
	for format, set := range selected {
		if set {
			count++
			options.Format = format
		}
	}
	if count > 1 {
		return fmt.Errorf("multiple format flags specified; please use only one format flag")
	}
	switch options.Format {
	case "":
		options.Format = FormatPretty
	case FormatPretty, FormatJSON, FormatYAML, FormatCSV:
	default:
		return fmt.Errorf("unknown output format %q", options.Format)
	}
	return nil
}

// colorDisabled reports whether pretty output should be plain: when asked
// to, when NO_COLOR is set, or when stdout is not a terminal.
func colorDisabled(noColor bool) bool {
	if noColor || termenv.EnvNoColor() {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}
