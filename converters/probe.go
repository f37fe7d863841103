package converters

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/exec"
)

const probeTimeout = 30 * time.Second

// MediaInfo describes an audio or video file as reported by ffprobe.
type MediaInfo struct {
	Container string        `json:"container" yaml:"container"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	FPS       float64       `json:"fps,omitempty" yaml:"fps,omitempty"`
	Width     int           `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int           `json:"height,omitempty" yaml:"height,omitempty"`
	HasVideo  bool          `json:"has_video" yaml:"has_video"`
	HasAudio  bool          `json:"has_audio" yaml:"has_audio"`
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// ffprobePath finds ffprobe next to the detected ffmpeg binary.
func ffprobePath(ffmpeg string) string {
	dir, base := filepath.Split(ffmpeg)
	if dir == "" {
		return "ffprobe"
	}
	return filepath.Join(dir, strings.Replace(base, "ffmpeg", "ffprobe", 1))
}

// frameRate parses ffprobe's "num/den" rates. Unknown rates are 0.
func frameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseProbe(data []byte) (MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return MediaInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	info := MediaInfo{Container: out.Format.FormatName}
	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
	}
	for _, st := range out.Streams {
		switch st.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width, info.Height = st.Width, st.Height
			info.FPS = frameRate(st.RFrameRate)
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

// ProbeMedia reports duration, frame rate, size and streams of an audio or
// video file. It needs a local ffmpeg install.
func (c *Converters) ProbeMedia(ctx context.Context, path string) (MediaInfo, error) {
	caps := c.opts.Capabilities
	if !caps.Available(capabilities.FFmpeg) {
		return MediaInfo{}, NewConverterError("ffprobe", "probe", fmt.Errorf("ffmpeg is not installed"))
	}
	p := c.opts.Runner.Run(ctx, exec.Command(ffprobePath(caps.Path(capabilities.FFmpeg, "ffmpeg")),
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path).
		WithTimeout(probeTimeout))
	if p.Err != nil {
		return MediaInfo{}, NewConverterError("ffprobe", "probe", p.Err)
	}
	info, err := parseProbe(p.Stdout.Bytes())
	if err != nil {
		return MediaInfo{}, NewConverterError("ffprobe", "parse", err)
	}
	return info, nil
}
