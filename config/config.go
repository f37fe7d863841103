// Package config loads transmute settings from a config file, TRANSMUTE_*
// environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/converters"
	"github.com/flanksource/transmute/exec"
)

const (
	Name      = "transmute"
	EnvPrefix = "TRANSMUTE"
)

type Timeouts struct {
	Document  time.Duration `mapstructure:"document" yaml:"document" json:"document" validate:"gt=0"`
	Video     time.Duration `mapstructure:"video" yaml:"video" json:"video" validate:"gt=0"`
	Audio     time.Duration `mapstructure:"audio" yaml:"audio" json:"audio" validate:"gt=0"`
	Animation time.Duration `mapstructure:"animation" yaml:"animation" json:"animation" validate:"gt=0"`
	Render    time.Duration `mapstructure:"render" yaml:"render" json:"render" validate:"gt=0"`
}

type Tools struct {
	// Disabled tools are treated as missing even when installed.
	Disabled       []string `mapstructure:"disabled" yaml:"disabled" json:"disabled" validate:"dive,oneof=word libreoffice inkscape rsvg-convert imagemagick playwright ffmpeg container"`
	Playwright     bool     `mapstructure:"playwright" yaml:"playwright" json:"playwright"`
	ContainerImage string   `mapstructure:"container_image" yaml:"container_image" json:"container_image" validate:"required"`
	LibreOffice    string   `mapstructure:"libreoffice" yaml:"libreoffice,omitempty" json:"libreoffice,omitempty"`
}

type Image struct {
	JPEGQuality     int `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality" validate:"min=1,max=100"`
	WebPQuality     int `mapstructure:"webp_quality" yaml:"webp_quality" json:"webp_quality" validate:"min=1,max=100"`
	SVGSize         int `mapstructure:"svg_size" yaml:"svg_size" json:"svg_size" validate:"min=16,max=16384"`
	PlaceholderSize int `mapstructure:"placeholder_size" yaml:"placeholder_size" json:"placeholder_size" validate:"min=1,max=4096"`
}

type Media struct {
	GIFWidth int `mapstructure:"gif_width" yaml:"gif_width" json:"gif_width" validate:"min=16,max=4096"`
	GIFFPS   int `mapstructure:"gif_fps" yaml:"gif_fps" json:"gif_fps" validate:"min=1,max=60"`
	// GIFDuration trims gifs made from video. 0 keeps the whole clip.
	GIFDuration time.Duration `mapstructure:"gif_duration" yaml:"gif_duration" json:"gif_duration" validate:"gte=0"`
}

type Options struct {
	// MaxFileSizeMB rejects larger inputs. 0 disables the limit.
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb" json:"max_file_size_mb" validate:"gte=0"`
	// BatchCap bounds the files converted per batch. 0 disables the limit.
	BatchCap  int      `mapstructure:"batch_cap" yaml:"batch_cap" json:"batch_cap" validate:"gte=0"`
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir" validate:"required"`
	Timeouts  Timeouts `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Tools     Tools    `mapstructure:"tools" yaml:"tools" json:"tools"`
	Image     Image    `mapstructure:"image" yaml:"image" json:"image"`
	Media     Media    `mapstructure:"media" yaml:"media" json:"media"`
}

// Default mirrors the built-in converter defaults.
func Default() Options {
	t := converters.DefaultTimeouts()
	img := converters.DefaultImageOptions()
	media := converters.DefaultMediaOptions()
	return Options{
		MaxFileSizeMB: 100,
		BatchCap:      50,
		OutputDir:     "./converted_files",
		Timeouts: Timeouts{
			Document:  t.Document,
			Video:     t.Video,
			Audio:     t.Audio,
			Animation: t.Animation,
			Render:    t.Render,
		},
		Tools: Tools{ContainerImage: media.ContainerImage},
		Image: Image{
			JPEGQuality:     img.JPEGQuality,
			WebPQuality:     img.WebPQuality,
			SVGSize:         img.SVGSize,
			PlaceholderSize: img.PlaceholderSize,
		},
		Media: Media{GIFWidth: media.GIFWidth, GIFFPS: media.GIFFPS},
	}
}

// flag names keyed by their config key.
var flagKeys = map[string]string{
	"max_file_size_mb":       "max-file-size",
	"batch_cap":              "cap",
	"output_dir":             "output-dir",
	"timeouts.document":      "document-timeout",
	"timeouts.video":         "video-timeout",
	"timeouts.audio":         "audio-timeout",
	"timeouts.animation":     "animation-timeout",
	"timeouts.render":        "render-timeout",
	"tools.disabled":         "disable-tool",
	"tools.playwright":       "playwright",
	"tools.container_image":  "container-image",
	"tools.libreoffice":      "libreoffice",
	"image.jpeg_quality":     "jpeg-quality",
	"image.webp_quality":     "webp-quality",
	"image.svg_size":         "svg-size",
	"image.placeholder_size": "placeholder-size",
	"media.gif_width":        "gif-width",
	"media.gif_fps":          "gif-fps",
	"media.gif_duration":     "gif-duration",
}

// BindFlags registers every option as a flag, defaulting to Default().
func BindFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "Config file (default is ./transmute.yaml or ~/.config/transmute/transmute.yaml)")
	flags.Int64("max-file-size", d.MaxFileSizeMB, "Reject inputs larger than this many MB, 0 disables the limit")
	flags.Int("cap", d.BatchCap, "Maximum number of files converted per batch, 0 disables the limit")
	flags.String("output-dir", d.OutputDir, "Directory batch output is written to")
	flags.Duration("document-timeout", d.Timeouts.Document, "Time limit for office document conversions")
	flags.Duration("video-timeout", d.Timeouts.Video, "Time limit for video transcodes")
	flags.Duration("audio-timeout", d.Timeouts.Audio, "Time limit for audio transcodes")
	flags.Duration("animation-timeout", d.Timeouts.Animation, "Time limit for video to gif conversions")
	flags.Duration("render-timeout", d.Timeouts.Render, "Time limit for vector and browser renders")
	flags.StringSlice("disable-tool", nil, "Treat an external tool as missing (repeatable)")
	flags.Bool("playwright", d.Tools.Playwright, "Enable the headless browser renderer")
	flags.String("container-image", d.Tools.ContainerImage, "ffmpeg image used when no local ffmpeg is installed")
	flags.String("libreoffice", "", "LibreOffice binary to use instead of soffice")
	flags.Int("jpeg-quality", d.Image.JPEGQuality, "JPEG quality (1-100)")
	flags.Int("webp-quality", d.Image.WebPQuality, "WebP quality (1-100)")
	flags.Int("svg-size", d.Image.SVGSize, "Longest side in pixels of rasterized SVG input")
	flags.Int("placeholder-size", d.Image.PlaceholderSize, "Side in pixels of placeholder images")
	flags.Int("gif-width", d.Media.GIFWidth, "Width of gifs made from video")
	flags.Int("gif-fps", d.Media.GIFFPS, "Frame rate of gifs made from video")
	flags.Duration("gif-duration", d.Media.GIFDuration, "Keep only this much of a video turned into a gif, 0 keeps all")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("max_file_size_mb", d.MaxFileSizeMB)
	v.SetDefault("batch_cap", d.BatchCap)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("timeouts.document", d.Timeouts.Document)
	v.SetDefault("timeouts.video", d.Timeouts.Video)
	v.SetDefault("timeouts.audio", d.Timeouts.Audio)
	v.SetDefault("timeouts.animation", d.Timeouts.Animation)
	v.SetDefault("timeouts.render", d.Timeouts.Render)
	v.SetDefault("tools.disabled", []string{})
	v.SetDefault("tools.playwright", d.Tools.Playwright)
	v.SetDefault("tools.container_image", d.Tools.ContainerImage)
	v.SetDefault("tools.libreoffice", "")
	v.SetDefault("image.jpeg_quality", d.Image.JPEGQuality)
	v.SetDefault("image.webp_quality", d.Image.WebPQuality)
	v.SetDefault("image.svg_size", d.Image.SVGSize)
	v.SetDefault("image.placeholder_size", d.Image.PlaceholderSize)
	v.SetDefault("media.gif_width", d.Media.GIFWidth)
	v.SetDefault("media.gif_fps", d.Media.GIFFPS)
	v.SetDefault("media.gif_duration", d.Media.GIFDuration)
}

// NewViper prepares a viper instance with defaults, the TRANSMUTE_ env
// prefix and, when flags is not nil, the flags registered by BindFlags.
// cfgFile overrides the config file search.
func NewViper(flags *pflag.FlagSet, cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

var validate = validator.New()

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("failed to decode config: %w", err)
	}
	for i, t := range opts.Tools.Disabled {
		opts.Tools.Disabled[i] = strings.ToLower(strings.TrimSpace(t))
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MaxFileSize is the engine limit in bytes; -1 disables it.
func (o Options) MaxFileSize() int64 {
	if o.MaxFileSizeMB <= 0 {
		return -1
	}
	return o.MaxFileSizeMB << 20
}

// Cap is the batch limit; -1 disables it.
func (o Options) Cap() int {
	if o.BatchCap <= 0 {
		return -1
	}
	return o.BatchCap
}

func (o Options) Capabilities() capabilities.Options {
	disabled := make([]capabilities.Tool, len(o.Tools.Disabled))
	for i, t := range o.Tools.Disabled {
		disabled[i] = capabilities.Tool(t)
	}
	return capabilities.Options{
		Disabled:    disabled,
		Playwright:  o.Tools.Playwright,
		LibreOffice: o.Tools.LibreOffice,
	}
}

func (o Options) Converters(runner exec.Runner, caps capabilities.Set) converters.Options {
	return converters.Options{
		Runner:       runner,
		Capabilities: caps,
		Timeouts: converters.Timeouts{
			Document:  o.Timeouts.Document,
			Video:     o.Timeouts.Video,
			Audio:     o.Timeouts.Audio,
			Animation: o.Timeouts.Animation,
			Render:    o.Timeouts.Render,
		},
		Image: converters.ImageOptions{
			JPEGQuality:     o.Image.JPEGQuality,
			WebPQuality:     o.Image.WebPQuality,
			SVGSize:         o.Image.SVGSize,
			PlaceholderSize: o.Image.PlaceholderSize,
		},
		Media: converters.MediaOptions{
			GIFWidth:       o.Media.GIFWidth,
			GIFFPS:         o.Media.GIFFPS,
			GIFDuration:    o.Media.GIFDuration,
			ContainerImage: o.Tools.ContainerImage,
		},
	}
}
