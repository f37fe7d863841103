// Package transmute converts files between document, spreadsheet, image,
// vector, video and audio formats. Converter is the entry point used by the
// command line and by embedding programs.
package transmute

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flanksource/commons/logger"

	"github.com/flanksource/transmute/batch"
	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/config"
	"github.com/flanksource/transmute/converters"
	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

type Options struct {
	// Config defaults to config.Default().
	Config *config.Options
	// Runner executes external tools. Defaults to exec.Default.
	Runner exec.Runner
	// Capabilities skips detection when set.
	Capabilities *capabilities.Set
	Logger       logger.Logger
}

type Converter struct {
	cfg        config.Options
	formats    *formats.Registry
	registry   *registry.Registry
	engine     *engine.Engine
	converters *converters.Converters
	log        logger.Logger
}

// BatchResult is the three-number outcome of RunBatch.
type BatchResult struct {
	SuccessCount int  `json:"success_count"`
	FailureCount int  `json:"failure_count"`
	Truncated    bool `json:"truncated"`
}

// New detects the available tools once and builds the handler registry.
func New(opts Options) (*Converter, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runner := opts.Runner
	if runner == nil {
		runner = exec.Default
	}
	log, convertLog, batchLog := opts.Logger, opts.Logger, opts.Logger
	if log == nil {
		log, convertLog, batchLog = logger.GetLogger("transmute"), logger.GetLogger("convert"), logger.GetLogger("batch")
	}

	var caps capabilities.Set
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else {
		caps = capabilities.Detect(runner, cfg.Capabilities())
	}
	for _, s := range caps.All() {
		if s.Available {
			log.Debugf("found %s at %s", s.Tool, s.Path)
		} else {
			log.Debugf("%s unavailable: %s", s.Tool, s.Reason)
		}
	}

	conv := converters.New(cfg.Converters(runner, caps))
	reg, err := conv.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to build handler registry: %w", err)
	}
	fr := formats.Default()
	return &Converter{
		cfg:      cfg,
		formats:  fr,
		registry: reg,
		engine: engine.New(engine.Options{
			Formats:      fr,
			Registry:     reg,
			Capabilities: caps,
			MaxFileSize:  cfg.MaxFileSize(),
			Logger:       convertLog,
		}),
		converters: conv,
		log:        batchLog,
	}, nil
}

// Close stops the headless browser if a render started one.
func (c *Converter) Close() error {
	return c.converters.Close()
}

func (c *Converter) Formats() *formats.Registry {
	return c.formats
}

func (c *Converter) Registry() *registry.Registry {
	return c.registry
}

func (c *Converter) Capabilities() capabilities.Set {
	return c.engine.Capabilities()
}

func (c *Converter) Config() config.Options {
	return c.cfg
}

func (c *Converter) Engine() *engine.Engine {
	return c.engine
}

// FormatOf maps a path to its format by extension, case-insensitively.
func (c *Converter) FormatOf(path string) (Format, bool) {
	return c.formats.FormatOf(path)
}

func (c *Converter) IsConvertible(src, dst Format) bool {
	return c.registry.IsConvertible(src, dst)
}

// ConvertibleTargets lists every format src has a handler for.
func (c *Converter) ConvertibleTargets(src Format) []Format {
	return c.registry.ConvertibleTargets(src)
}

// Convert reports whether in was converted to out.
func (c *Converter) Convert(ctx context.Context, in, out string, src, dst Format) bool {
	return c.ConvertFile(ctx, in, out, src, dst).Success
}

// ConvertFile converts in to out and returns the full result.
func (c *Converter) ConvertFile(ctx context.Context, in, out string, src, dst Format) Result {
	return c.engine.Convert(ctx, in, out, src, dst)
}

// ConvertPath infers both formats from the file extensions.
func (c *Converter) ConvertPath(ctx context.Context, in, out string) Result {
	src, ok := c.FormatOf(in)
	if !ok {
		return invalid(in, fmt.Errorf("unrecognized extension %q", filepath.Ext(in)))
	}
	dst, ok := c.FormatOf(out)
	if !ok {
		return invalid(in, fmt.Errorf("unrecognized output extension %q", filepath.Ext(out)))
	}
	return c.ConvertFile(ctx, in, out, src, dst)
}

// MediaInfo probes an audio or video file. Other inputs fail with
// ErrInvalidInput.
func (c *Converter) MediaInfo(ctx context.Context, path string) (MediaInfo, error) {
	f, ok := c.FormatOf(path)
	if !ok {
		return MediaInfo{}, fmt.Errorf("%w: unrecognized extension %q", ErrInvalidInput, filepath.Ext(path))
	}
	if family := c.formats.Family(f); family != formats.FamilyVideo && family != formats.FamilyAudio {
		return MediaInfo{}, fmt.Errorf("%w: %s is not an audio or video format", ErrInvalidInput, f)
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return MediaInfo{}, fmt.Errorf("%w: %s is not a readable file", ErrInvalidInput, path)
	}
	return c.converters.ProbeMedia(ctx, path)
}

func invalid(in string, err error) Result {
	return Result{Input: in, Err: &engine.ConversionError{Kind: engine.ErrInvalidInput, Input: in, Err: err}}
}

// OutputPath is where a single conversion of in to dst is written inside dir.
func (c *Converter) OutputPath(in, dir string, dst Format) string {
	base := filepath.Base(in)
	return filepath.Join(dir, base[:len(base)-len(filepath.Ext(base))]+c.formats.OutputExtension(dst))
}

// RunBatch converts up to limit files under inputDir to target. A limit of
// zero or less converts every file.
func (c *Converter) RunBatch(ctx context.Context, inputDir, outputDir string, target Format, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = -1
	}
	s, err := c.Batch(ctx, batch.Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Target:    target,
		Cap:       limit,
	})
	if err != nil {
		return BatchResult{}, err
	}
	return BatchResult{SuccessCount: s.Succeeded, FailureCount: s.Failed, Truncated: s.Truncated}, nil
}

// Batch runs a batch with full control over its options. Formats, Registry
// and Logger are filled in from the converter; Cap defaults to the configured
// batch cap.
func (c *Converter) Batch(ctx context.Context, opts batch.Options) (Summary, error) {
	opts.Formats = c.formats
	opts.Registry = c.registry
	if opts.Logger == nil {
		opts.Logger = c.log
	}
	if opts.Cap == 0 {
		opts.Cap = c.cfg.Cap()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = c.cfg.OutputDir
	}
	return batch.ConvertDir(ctx, c.engine, opts)
}
