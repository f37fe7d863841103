// Package converters holds every conversion strategy and the table that
// binds them to format pairs.
package converters

import (
	"time"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/exec"
)

type Timeouts struct {
	Document  time.Duration `json:"document" yaml:"document"`
	Video     time.Duration `json:"video" yaml:"video"`
	Audio     time.Duration `json:"audio" yaml:"audio"`
	Animation time.Duration `json:"animation" yaml:"animation"`
	Render    time.Duration `json:"render" yaml:"render"`
}

type ImageOptions struct {
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
	WebPQuality int `json:"webp_quality" yaml:"webp_quality"`
	// SVGSize is the longest side, in pixels, of rasterized vector input.
	SVGSize int `json:"svg_size" yaml:"svg_size"`
	// PlaceholderSize is the side of the grey square written when a vector
	// image cannot be rendered at all.
	PlaceholderSize int `json:"placeholder_size" yaml:"placeholder_size"`
}

type MediaOptions struct {
	GIFWidth int `json:"gif_width" yaml:"gif_width"`
	GIFFPS   int `json:"gif_fps" yaml:"gif_fps"`
	// GIFDuration keeps only the start of a clip turned into a gif. 0 keeps
	// all of it.
	GIFDuration time.Duration `json:"gif_duration,omitempty" yaml:"gif_duration,omitempty"`
	// ContainerImage runs ffmpeg when no local binary is installed.
	ContainerImage string `json:"container_image" yaml:"container_image"`
}

type Options struct {
	Runner       exec.Runner
	Capabilities capabilities.Set
	Timeouts     Timeouts
	Image        ImageOptions
	Media        MediaOptions
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Document:  60 * time.Second,
		Video:     600 * time.Second,
		Audio:     300 * time.Second,
		Animation: 300 * time.Second,
		Render:    60 * time.Second,
	}
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{JPEGQuality: 95, WebPQuality: 90, SVGSize: 1024, PlaceholderSize: 512}
}

func DefaultMediaOptions() MediaOptions {
	return MediaOptions{GIFWidth: 480, GIFFPS: 10, ContainerImage: "jrottenberg/ffmpeg:6.1-alpine"}
}

// DefaultOptions uses the host runner and an empty capability set.
func DefaultOptions() Options {
	return Options{
		Runner:       exec.Default,
		Capabilities: capabilities.Static(),
		Timeouts:     DefaultTimeouts(),
		Image:        DefaultImageOptions(),
		Media:        DefaultMediaOptions(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Runner == nil {
		o.Runner = d.Runner
	}
	if o.Timeouts == (Timeouts{}) {
		o.Timeouts = d.Timeouts
	}
	if o.Image.JPEGQuality == 0 {
		o.Image.JPEGQuality = d.Image.JPEGQuality
	}
	if o.Image.WebPQuality == 0 {
		o.Image.WebPQuality = d.Image.WebPQuality
	}
	if o.Image.SVGSize == 0 {
		o.Image.SVGSize = d.Image.SVGSize
	}
	if o.Image.PlaceholderSize == 0 {
		o.Image.PlaceholderSize = d.Image.PlaceholderSize
	}
	if o.Media.GIFWidth == 0 {
		o.Media.GIFWidth = d.Media.GIFWidth
	}
	if o.Media.GIFFPS == 0 {
		o.Media.GIFFPS = d.Media.GIFFPS
	}
	if o.Media.ContainerImage == "" {
		o.Media.ContainerImage = d.Media.ContainerImage
	}
	return o
}
