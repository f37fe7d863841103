// Package capabilities records which external toolchains are usable on this
// host. Detection runs once at startup; strategies consult the resulting Set
// instead of probing on every conversion.
package capabilities

import (
	"runtime"
	"sort"
	"strings"
)

type Tool string

const (
	// Word is Microsoft Word driven through PowerShell COM automation.
	Word        Tool = "word"
	LibreOffice Tool = "libreoffice"
	Inkscape    Tool = "inkscape"
	RSVG        Tool = "rsvg-convert"
	ImageMagick Tool = "imagemagick"
	// Playwright is a headless Chromium managed by playwright-go. It is
	// opt-in because the first use downloads a browser.
	Playwright Tool = "playwright"
	FFmpeg     Tool = "ffmpeg"
	// Container is a docker or podman runtime able to run ffmpeg images.
	Container Tool = "container"
)

// Tools lists every tool in probe order.
var Tools = []Tool{Word, LibreOffice, Inkscape, RSVG, ImageMagick, Playwright, FFmpeg, Container}

type Status struct {
	Tool      Tool   `json:"tool"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Set is an immutable snapshot of tool availability.
type Set struct {
	statuses map[Tool]Status
}

func (s Set) Available(t Tool) bool {
	return s.statuses[t].Available
}

// AllAvailable reports whether every tool in tools is available.
func (s Set) AllAvailable(tools ...Tool) bool {
	for _, t := range tools {
		if !s.Available(t) {
			return false
		}
	}
	return true
}

func (s Set) Status(t Tool) Status {
	if st, ok := s.statuses[t]; ok {
		return st
	}
	return Status{Tool: t, Reason: "not probed"}
}

// Path returns the resolved binary for t, or fallback when none was recorded.
func (s Set) Path(t Tool, fallback string) string {
	if p := s.statuses[t].Path; p != "" {
		return p
	}
	return fallback
}

func (s Set) All() []Status {
	out := make([]Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// Static builds a Set where exactly the given tools are available.
func Static(available ...Tool) Set {
	s := Set{statuses: map[Tool]Status{}}
	for _, t := range Tools {
		s.statuses[t] = Status{Tool: t, Reason: "disabled"}
	}
	for _, t := range available {
		s.statuses[t] = Status{Tool: t, Available: true, Path: string(t)}
	}
	return s
}

// Prober resolves binaries on PATH. exec.Runner satisfies it.
type Prober interface {
	LookPath(file string) (string, error)
}

type Options struct {
	// Disabled tools are reported unavailable regardless of the host.
	Disabled []Tool
	// Playwright enables the headless browser renderer.
	Playwright bool
	// LibreOffice overrides the soffice binary name or path.
	LibreOffice string
	// GOOS defaults to runtime.GOOS.
	GOOS string
}

var candidates = map[Tool][]string{
	LibreOffice: {"soffice", "libreoffice"},
	Inkscape:    {"inkscape"},
	RSVG:        {"rsvg-convert"},
	ImageMagick: {"magick"},
	FFmpeg:      {"ffmpeg"},
	Container:   {"docker", "podman"},
	Word:        {"powershell", "pwsh"},
}

// Detect probes every tool once.
func Detect(p Prober, opts Options) Set {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	disabled := map[Tool]bool{}
	for _, t := range opts.Disabled {
		disabled[Tool(strings.ToLower(string(t)))] = true
	}

	s := Set{statuses: map[Tool]Status{}}
	for _, t := range Tools {
		st := Status{Tool: t}
		switch {
		case disabled[t]:
			st.Reason = "disabled by configuration"
		case t == Word && goos != "windows":
			st.Reason = "office automation requires windows"
		case t == Playwright:
			if opts.Playwright {
				st.Available = true
			} else {
				st.Reason = "not enabled (tools.playwright)"
			}
		default:
			names := candidates[t]
			if t == LibreOffice && opts.LibreOffice != "" {
				names = []string{opts.LibreOffice}
			}
			st = lookup(p, t, names)
		}
		s.statuses[t] = st
	}
	return s
}

func lookup(p Prober, t Tool, names []string) Status {
	for _, name := range names {
		if path, err := p.LookPath(name); err == nil {
			return Status{Tool: t, Available: true, Path: path}
		}
	}
	return Status{Tool: t, Reason: "none of " + strings.Join(names, ", ") + " found on PATH"}
}
