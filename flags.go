package transmute

import (
	"github.com/flanksource/commons/logger"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/flanksource/transmute/report"
)

type AllFlags struct {
	report.Options `yaml:",inline"`
	logger.Flags   `yaml:",inline"`
}

var Flags AllFlags = AllFlags{
	Options: report.Options{Format: report.FormatPretty},
	Flags: logger.Flags{
		Level:        "info",
		LevelCount:   0,
		JsonLogs:     false,
		ReportCaller: false,
		LogToStderr:  true,
	},
}

// BindAllFlags adds logging and output flags to a pflag set (for Cobra)
func BindAllFlags(flags *pflag.FlagSet) AllFlags {
	flags.CountVarP(&Flags.Flags.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&Flags.Flags.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&Flags.Flags.JsonLogs, "json-logs", false, "Print logs in json format to stderr")

	flags.BoolVar(&Flags.Flags.ReportCaller, "report-caller", false, "Report log caller info")
	flags.BoolVar(&Flags.Flags.LogToStderr, "log-to-stderr", true, "Log to stderr instead of stdout")

	report.BindPFlags(flags, &Flags.Options)
	return Flags
}

func (a AllFlags) String() string {
	b, _ := yaml.Marshal(a)
	return string(b)
}

// UseFlags configures the logger and resolves the output format.
func (a *AllFlags) UseFlags() error {
	logger.Configure(a.Flags)
	logger.Debugf("Using flags: %s", a)
	return a.Options.ResolveFormat()
}
