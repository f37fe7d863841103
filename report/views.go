package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/flanksource/transmute/batch"
	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/converters"
	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// FileResult is the serialized form of an engine.Result.
type FileResult struct {
	Input    string           `json:"input" yaml:"input"`
	Output   string           `json:"output,omitempty" yaml:"output,omitempty"`
	Edge     string           `json:"edge" yaml:"edge"`
	Success  bool             `json:"success" yaml:"success"`
	Strategy string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Degraded bool             `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Lossy    bool             `json:"lossy,omitempty" yaml:"lossy,omitempty"`
	Attempts []engine.Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Duration string           `json:"duration" yaml:"duration"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func NewFileResult(r engine.Result) FileResult {
	return FileResult{
		Input:    r.Input,
		Output:   r.Output,
		Edge:     r.Edge.String(),
		Success:  r.Success,
		Strategy: r.Strategy,
		Degraded: r.Degraded,
		Lossy:    r.Lossy,
		Attempts: r.Attempts,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Error:    r.ErrorMessage(),
	}
}

func (r FileResult) status() string {
	switch {
	case !r.Success:
		return "failed"
	case r.Degraded:
		return "placeholder"
	default:
		return "ok"
	}
}

func rowStatus(row []string) Status {
	switch row[0] {
	case "ok":
		return StatusOK
	case "placeholder":
		return StatusWarn
	case "failed":
		return StatusFail
	}
	return StatusNone
}

func resultTable(results []FileResult) Table {
	t := Table{Headers: []string{"Status", "Input", "Output", "Strategy", "Duration", "Error"}}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{r.status(), r.Input, r.Output, r.Strategy, r.Duration, r.Error})
	}
	return t
}

// Conversion reports a single file conversion.
func Conversion(r engine.Result) Report {
	fr := NewFileResult(r)
	footer := ""
	if len(r.Attempts) > 1 {
		footer = "attempts: " + strings.Join(lo.Map(r.Attempts, func(a engine.Attempt, _ int) string {
			return a.Strategy + "=" + string(a.Status)
		}), ", ")
	}
	return Report{Data: fr, Table: resultTable([]FileResult{fr}), Footer: footer, Status: rowStatus}
}

// BatchSummary is the serialized form of a batch.Summary.
type BatchSummary struct {
	ID         string         `json:"id" yaml:"id"`
	Target     formats.Format `json:"target" yaml:"target"`
	Succeeded  int            `json:"succeeded" yaml:"succeeded"`
	Failed     int            `json:"failed" yaml:"failed"`
	Skipped    int            `json:"skipped" yaml:"skipped"`
	Discovered int            `json:"discovered" yaml:"discovered"`
	Truncated  bool           `json:"truncated" yaml:"truncated"`
	Cancelled  bool           `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Duration   string         `json:"duration" yaml:"duration"`
	Results    []FileResult   `json:"results" yaml:"results"`
}

func Batch(s batch.Summary) Report {
	data := BatchSummary{
		ID:         s.ID,
		Target:     s.Target,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		Discovered: s.Discovered,
		Truncated:  s.Truncated,
		Cancelled:  s.Cancelled,
		Duration:   s.Duration.Round(time.Millisecond).String(),
		Results:    lo.Map(s.Results, func(r engine.Result, _ int) FileResult { return NewFileResult(r) }),
	}
	footer := fmt.Sprintf("%d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
	if s.Truncated {
		footer += fmt.Sprintf(" (truncated: %d convertible files found)", s.Discovered)
	}
	if s.Cancelled {
		footer += " (cancelled)"
	}
	return Report{
		Title:  fmt.Sprintf("Batch %s to %s", shortID(s.ID), s.Target),
		Data:   data,
		Table:  resultTable(data.Results),
		Footer: footer,
		Status: rowStatus,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type FormatInfo struct {
	Format     formats.Format `json:"format" yaml:"format"`
	Family     formats.Family `json:"family" yaml:"family"`
	Extensions []string       `json:"extensions" yaml:"extensions"`
	Targets    int            `json:"targets" yaml:"targets"`
}

// Formats lists every known format with the number of targets it converts to.
func Formats(fr *formats.Registry, reg *registry.Registry) Report {
	infos := lo.Map(fr.All(), func(f formats.Format, _ int) FormatInfo {
		return FormatInfo{
			Format:     f,
			Family:     fr.Family(f),
			Extensions: fr.Aliases(f),
			Targets:    len(reg.ConvertibleTargets(f)),
		}
	})
	t := Table{Headers: []string{"Format", "Family", "Extensions", "Targets"}}
	for _, i := range infos {
		t.Rows = append(t.Rows, []string{string(i.Format), string(i.Family), strings.Join(i.Extensions, " "), fmt.Sprint(i.Targets)})
	}
	return Report{Title: "Supported formats", Data: infos, Table: t}
}

type ConversionInfo struct {
	Source     formats.Format `json:"source" yaml:"source"`
	Target     formats.Format `json:"target" yaml:"target"`
	Family     string         `json:"family" yaml:"family"`
	Lossy      bool           `json:"lossy" yaml:"lossy"`
	Strategies []string       `json:"strategies" yaml:"strategies"`
}

// Conversions lists the edges out of each source, or out of only when it is
// non-empty.
func Conversions(reg *registry.Registry, only formats.Format) Report {
	var infos []ConversionInfo
	for _, src := range reg.Sources() {
		if only != "" && src != only {
			continue
		}
		for _, dst := range reg.ConvertibleTargets(src) {
			b, _ := reg.HandlerFor(src, dst)
			infos = append(infos, ConversionInfo{
				Source:     src,
				Target:     dst,
				Family:     b.Family,
				Lossy:      b.Lossy,
				Strategies: b.StrategyNames(),
			})
		}
	}
	t := Table{Headers: []string{"Source", "Target", "Lossy", "Strategies"}}
	for _, i := range infos {
		t.Rows = append(t.Rows, []string{string(i.Source), string(i.Target), lo.Ternary(i.Lossy, "yes", ""), strings.Join(i.Strategies, " → ")})
	}
	return Report{
		Title:  "Conversions",
		Data:   infos,
		Table:  t,
		Footer: fmt.Sprintf("%d conversions", len(infos)),
	}
}

// Capabilities reports which external tools were detected.
func Capabilities(caps capabilities.Set, extra ...capabilities.Status) Report {
	statuses := append(caps.All(), extra...)
	t := Table{Headers: []string{"Status", "Tool", "Path", "Reason"}}
	for _, s := range statuses {
		t.Rows = append(t.Rows, []string{lo.Ternary(s.Available, "ok", "missing"), string(s.Tool), s.Path, s.Reason})
	}
	return Report{
		Title: "External tools",
		Data:  statuses,
		Table: t,
		Status: func(row []string) Status {
			return lo.Ternary(row[0] == "ok", StatusOK, StatusWarn)
		},
	}
}

// Media reports the streams of an audio or video file.
func Media(path string, info converters.MediaInfo) Report {
	t := Table{Headers: []string{"Property", "Value"}}
	t.Rows = [][]string{
		{"container", info.Container},
		{"duration", info.Duration.String()},
		{"video", lo.Ternary(info.HasVideo, fmt.Sprintf("%dx%d @ %.2f fps", info.Width, info.Height, info.FPS), "none")},
		{"audio", lo.Ternary(info.HasAudio, "yes", "no")},
	}
	return Report{Title: path, Data: info, Table: t}
}
