// Package batch discovers the convertible files of a directory and converts
// them, one at a time, to a single target format.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// DefaultCap is the number of files converted when Options leaves Cap unset.
const DefaultCap = 50

// Converter converts a single file. *engine.Engine satisfies it.
type Converter interface {
	Convert(ctx context.Context, in, out string, src, dst formats.Format) engine.Result
}

type Options struct {
	InputDir  string
	OutputDir string
	Target    formats.Format
	// Cap bounds the number of files converted. Zero means DefaultCap and a
	// negative value disables the limit.
	Cap      int
	Formats  *formats.Registry
	Registry *registry.Registry
	Logger   logger.Logger
	// OnResult is called after each file, in discovery order.
	OnResult func(Item, engine.Result)
}

// Item is one discovered file and where its output will be written.
type Item struct {
	Input  string         `json:"input"`
	Source formats.Format `json:"source"`
	Output string         `json:"output"`
}

// Job is the bounded set of files a Run converts.
type Job struct {
	ID        string         `json:"id"`
	Target    formats.Format `json:"target"`
	InputDir  string         `json:"input_dir"`
	OutputDir string         `json:"output_dir"`
	Items     []Item         `json:"items"`
	// Discovered counts convertible files before the cap was applied.
	Discovered int `json:"discovered"`
	// Skipped counts files with no known format or no edge to the target.
	Skipped   int  `json:"skipped"`
	Truncated bool `json:"truncated"`

	log      logger.Logger
	onResult func(Item, engine.Result)
}

type Summary struct {
	ID         string          `json:"id"`
	Target     formats.Format  `json:"target"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	Discovered int             `json:"discovered"`
	Truncated  bool            `json:"truncated"`
	Cancelled  bool            `json:"cancelled,omitempty"`
	Results    []engine.Result `json:"results"`
	Duration   time.Duration   `json:"duration"`
}

// Attempted is the number of files a conversion was started for.
func (s Summary) Attempted() int { return s.Succeeded + s.Failed }

func (s Summary) HasFailures() bool { return s.Failed > 0 }

func (o Options) withDefaults() (Options, error) {
	if o.Registry == nil {
		return o, fmt.Errorf("batch: a handler registry is required")
	}
	if o.Formats == nil {
		o.Formats = formats.Default()
	}
	if !o.Formats.IsKnown(o.Target) {
		return o, fmt.Errorf("unknown target format %q", o.Target)
	}
	if o.Cap == 0 {
		o.Cap = DefaultCap
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger("batch")
	}
	if o.OutputDir == "" {
		o.OutputDir = filepath.Join(o.InputDir, "converted_files")
	}
	return o, nil
}

func isStaging(name string) bool {
	return strings.HasPrefix(name, ".transmute-")
}

// Collect walks InputDir in lexical order and plans one Item per file that
// can be converted to Target. The output directory is never descended into,
// even when it lives under the input directory.
func Collect(opts Options) (*Job, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.InputDir)
	}
	outAbs, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.NewString(),
		Target:    opts.Target,
		InputDir:  opts.InputDir,
		OutputDir: opts.OutputDir,
		log:       opts.Logger,
		onResult:  opts.OnResult,
	}
	ext := opts.Formats.OutputExtension(opts.Target)
	taken := map[string]bool{}

	err = filepath.WalkDir(opts.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			opts.Logger.Warnf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == opts.InputDir {
				return nil
			}
			if abs, _ := filepath.Abs(path); abs == outAbs || isStaging(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		src, ok := opts.Formats.FormatOf(path)
		if !ok || !opts.Registry.IsConvertible(src, opts.Target) {
			opts.Logger.Debugf("not convertible to %s: %s", opts.Target, path)
			job.Skipped++
			return nil
		}
		job.Discovered++
		if opts.Cap > 0 && len(job.Items) >= opts.Cap {
			job.Truncated = true
			return nil
		}
		job.Items = append(job.Items, Item{
			Input:  path,
			Source: src,
			Output: filepath.Join(opts.OutputDir, outputName(taken, stem(path), ext)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if job.Truncated {
		opts.Logger.Warnf("found %d convertible files, only the first %d will be converted", job.Discovered, opts.Cap)
	}
	return job, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outputName returns stem+ext, or stem_n+ext when an earlier item in the
// same job already claimed that name.
func outputName(taken map[string]bool, stem, ext string) string {
	name := stem + ext
	for n := 1; taken[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	taken[strings.ToLower(name)] = true
	return name
}

// Run converts every item in discovery order. A failing file never stops the
// batch; cancelling ctx stops it before the next file starts.
func Run(ctx context.Context, conv Converter, job *Job) Summary {
	start := time.Now()
	log := job.log
	if log == nil {
		log = logger.GetLogger("batch")
	}
	summary := Summary{
		ID:         job.ID,
		Target:     job.Target,
		Skipped:    job.Skipped,
		Discovered: job.Discovered,
		Truncated:  job.Truncated,
		Results:    make([]engine.Result, 0, len(job.Items)),
	}
	defer func() { summary.Duration = time.Since(start) }()

	if len(job.Items) > 0 {
		if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
			log.Errorf("failed to create output directory %s: %v", job.OutputDir, err)
		}
	}

	for i, item := range job.Items {
		if err := ctx.Err(); err != nil {
			log.Warnf("batch cancelled after %d of %d files", i, len(job.Items))
			summary.Cancelled = true
			break
		}
		res := conv.Convert(ctx, item.Input, item.Output, item.Source, job.Target)
		if res.Success {
			summary.Succeeded++
			log.Infof("[%d/%d] %s -> %s (%s)", i+1, len(job.Items), item.Input, item.Output, res.Strategy)
		} else {
			summary.Failed++
			log.Errorf("[%d/%d] %s: %s", i+1, len(job.Items), item.Input, res.ErrorMessage())
		}
		summary.Results = append(summary.Results, res)
		if job.onResult != nil {
			job.onResult(item, res)
		}
	}

	log.Infof("batch %s: %d succeeded, %d failed, %d skipped%s", job.ID, summary.Succeeded, summary.Failed,
		summary.Skipped, lo.Ternary(summary.Truncated, " (truncated)", ""))
	return summary
}

// ConvertDir collects and runs in one call.
func ConvertDir(ctx context.Context, conv Converter, opts Options) (Summary, error) {
	job, err := Collect(opts)
	if err != nil {
		return Summary{}, err
	}
	return Run(ctx, conv, job), nil
}
