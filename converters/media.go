package converters

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/container"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

var videoCodecs = map[formats.Format][]string{
	formats.MP4:  {"-c:v", "libx264", "-c:a", "aac", "-preset", "medium"},
	formats.AVI:  {"-c:v", "libx264", "-c:a", "mp3"},
	formats.MOV:  {"-c:v", "libx264", "-c:a", "aac"},
	formats.WMV:  {"-c:v", "wmv2", "-c:a", "wmav2"},
	formats.FLV:  {"-c:v", "flv1", "-c:a", "mp3"},
	formats.MKV:  {"-c:v", "libx264", "-c:a", "aac"},
	formats.WEBM: {"-c:v", "libvpx", "-c:a", "libvorbis"},
	formats.M4V:  {"-c:v", "libx264", "-c:a", "aac"},
	formats.GP3:  {"-c:v", "h263", "-c:a", "aac", "-s", "176x144"},
}

var audioCodecs = map[formats.Format][]string{
	formats.MP3:  {"-acodec", "mp3", "-ab", "192k"},
	formats.WAV:  {"-acodec", "pcm_s16le"},
	formats.AAC:  {"-acodec", "aac", "-ab", "128k"},
	formats.FLAC: {"-acodec", "flac"},
	formats.OGG:  {"-acodec", "libvorbis", "-ab", "192k"},
	formats.M4A:  {"-acodec", "aac", "-ab", "128k"},
	formats.WMA:  {"-acodec", "wmav2", "-ab", "128k"},
}

// transcode is the codec selection for one edge, independent of where
// ffmpeg runs.
type transcode struct {
	edge    registry.Edge
	media   MediaOptions
	timeout time.Duration
}

// args builds the ffmpeg command line for the given paths.
func (t transcode) args(in, out string) []string {
	args := []string{"-i", in}
	switch {
	case t.edge.Target == formats.GIF:
		args = append(args, "-vf", fmt.Sprintf(
			"scale=%d:-1:flags=lanczos,fps=%d,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
			t.media.GIFWidth, t.media.GIFFPS))
		if t.media.GIFDuration > 0 {
			args = append(args, "-t", strconv.FormatFloat(t.media.GIFDuration.Seconds(), 'f', -1, 64))
		}
	case isVideo(t.edge.Target):
		args = append(args, videoCodecs[t.edge.Target]...)
	default:
		if isVideo(t.edge.Source) {
			args = append(args, "-vn")
		}
		args = append(args, audioCodecs[t.edge.Target]...)
	}
	return append(args, "-y", out)
}

func isVideo(f formats.Format) bool {
	_, ok := videoCodecs[f]
	return ok
}

// ffmpegLocal runs the host ffmpeg binary.
type ffmpegLocal struct {
	transcode
	runner exec.Runner
	caps   capabilities.Set
}

func (ffmpegLocal) Name() string { return "ffmpeg" }

func (ffmpegLocal) Requires() []capabilities.Tool {
	return []capabilities.Tool{capabilities.FFmpeg}
}

func (s ffmpegLocal) Convert(ctx registry.Context, in, out string) error {
	p := s.runner.Run(ctx, exec.Command(s.caps.Path(capabilities.FFmpeg, "ffmpeg"), s.args(in, out)...).
		WithTimeout(s.timeout).
		WithLogger(logOf(ctx)))
	if p.Err != nil {
		return NewConverterError(s.Name(), "transcode", p.Err)
	}
	return nil
}

// ffmpegContainer runs ffmpeg from an image with the input and output
// directories mounted at /in and /out.
type ffmpegContainer struct {
	transcode
	runner exec.Runner
	caps   capabilities.Set
	image  string
}

func (ffmpegContainer) Name() string { return "ffmpeg-container" }

func (ffmpegContainer) Requires() []capabilities.Tool {
	return []capabilities.Tool{capabilities.Container}
}

func (s ffmpegContainer) Convert(ctx registry.Context, in, out string) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return NewConverterError(s.Name(), "resolve input", err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return NewConverterError(s.Name(), "resolve output", err)
	}
	rt := container.New(s.caps.Path(capabilities.Container, "docker"), s.runner)
	logOf(ctx).Debugf("transcoding in %s image %s", rt.Name(), s.image)
	p := rt.Run(ctx, container.RunOptions{
		Image: s.image,
		Mounts: []container.Mount{
			{Source: filepath.Dir(absIn), Target: "/in", ReadOnly: true},
			{Source: filepath.Dir(absOut), Target: "/out"},
		},
		Args:    s.args("/in/"+filepath.Base(absIn), "/out/"+filepath.Base(absOut)),
		Timeout: s.timeout,
	})
	if p.Err != nil {
		return NewConverterError(s.Name(), "transcode", p.Err)
	}
	return nil
}
