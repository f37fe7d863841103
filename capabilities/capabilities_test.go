package capabilities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber map[string]string

func (f fakeProber) LookPath(file string) (string, error) {
	if p, ok := f[file]; ok {
		return p, nil
	}
	return "", errors.New("not found")
}

func TestDetect(t *testing.T) {
	p := fakeProber{
		"libreoffice": "/usr/bin/libreoffice",
		"ffmpeg":      "/usr/bin/ffmpeg",
		"podman":      "/usr/bin/podman",
		"powershell":  "/usr/bin/powershell",
		"inkscape":    "/usr/bin/inkscape",
	}
	set := Detect(p, Options{GOOS: "linux", Disabled: []Tool{"Inkscape"}})

	assert.True(t, set.Available(LibreOffice))
	assert.Equal(t, "/usr/bin/libreoffice", set.Path(LibreOffice, "soffice"))
	assert.True(t, set.Available(FFmpeg))
	assert.True(t, set.Available(Container))
	assert.Equal(t, "/usr/bin/podman", set.Status(Container).Path)

	assert.False(t, set.Available(Word), "word automation is windows only")
	assert.False(t, set.Available(Inkscape))
	assert.Contains(t, set.Status(Inkscape).Reason, "disabled")
	assert.False(t, set.Available(RSVG))
	assert.False(t, set.Available(Playwright))
	assert.Len(t, set.All(), len(Tools))
}

func TestDetectWindowsWord(t *testing.T) {
	set := Detect(fakeProber{"pwsh": "C:/pwsh.exe"}, Options{GOOS: "windows", Playwright: true})
	assert.True(t, set.Available(Word))
	assert.Equal(t, "C:/pwsh.exe", set.Path(Word, "powershell"))
	assert.True(t, set.Available(Playwright))
}

func TestLibreOfficeOverride(t *testing.T) {
	set := Detect(fakeProber{"/opt/lo/soffice": "/opt/lo/soffice"}, Options{LibreOffice: "/opt/lo/soffice"})
	assert.True(t, set.Available(LibreOffice))
}

func TestStatic(t *testing.T) {
	set := Static(FFmpeg)
	assert.True(t, set.Available(FFmpeg))
	assert.False(t, set.Available(LibreOffice))
	assert.True(t, set.AllAvailable(FFmpeg))
	assert.False(t, set.AllAvailable(FFmpeg, Container))
	assert.Equal(t, "soffice", set.Path(LibreOffice, "soffice"))
	assert.Equal(t, "not probed", Set{}.Status(FFmpeg).Reason)
}
