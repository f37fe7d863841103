package formats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	reg := Default()
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"report.docx", DOCX, true},
		{"REPORT.DOCX", DOCX, true},
		{"photo.JPeG", JPG, true},
		{"photo.jpg", JPG, true},
		{"scan.tif", TIFF, true},
		{"page.htm", HTML, true},
		{"notes.markdown", MD, true},
		{"clip.3gp", GP3, true},
		{"archive.tar.gz", "", false},
		{"Makefile", "", false},
		{"trailing.", "", false},
		{"dir.pdf/readme", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := reg.FormatOf(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputExtensionIsFirstAlias(t *testing.T) {
	reg := Default()
	for _, f := range reg.All() {
		aliases := reg.Aliases(f)
		require.NotEmpty(t, aliases, f)
		assert.Equal(t, aliases[0], reg.OutputExtension(f))
		back, ok := reg.FormatOf("x" + reg.OutputExtension(f))
		assert.True(t, ok)
		assert.Equal(t, f, back)
	}
	assert.Equal(t, ".jpg", reg.OutputExtension(JPG))
	assert.Equal(t, ".tiff", reg.OutputExtension(TIFF))
	assert.Equal(t, "", reg.OutputExtension("nope"))
}

func TestAliasesAreCopies(t *testing.T) {
	reg := Default()
	a := reg.Aliases(JPG)
	a[0] = ".broken"
	assert.Equal(t, ".jpg", reg.OutputExtension(JPG))
}

func TestNewRegistryRejectsConflicts(t *testing.T) {
	_, err := NewRegistry(
		Spec{Format: "a", Extensions: []string{".x"}},
		Spec{Format: "b", Extensions: []string{"X"}},
	)
	assert.ErrorContains(t, err, "claimed by both")

	_, err = NewRegistry(Spec{Format: "a"})
	assert.ErrorContains(t, err, "no extensions")

	_, err = NewRegistry(
		Spec{Format: "a", Extensions: []string{".a"}},
		Spec{Format: "a", Extensions: []string{".b"}},
	)
	assert.ErrorContains(t, err, "twice")
}

func TestParse(t *testing.T) {
	reg := Default()
	for in, want := range map[string]Format{"PDF": PDF, "jpeg": JPG, ".tif": TIFF, " mp3 ": MP3} {
		got, ok := reg.Parse(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := reg.Parse("exe")
	assert.False(t, ok)
}

func TestByFamily(t *testing.T) {
	reg := Default()
	assert.Len(t, reg.ByFamily(FamilyVideo), 9)
	assert.Len(t, reg.ByFamily(FamilyAudio), 7)
	assert.Contains(t, reg.ByFamily(FamilyImage), ICO)
	assert.NotContains(t, reg.ByFamily(FamilyImage), SVG)
}

func TestSniff(t *testing.T) {
	reg := Default()
	dir := t.TempDir()

	pdf := filepath.Join(dir, "ok.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"), 0o644))
	assert.NoError(t, reg.Sniff(pdf, PDF))

	fake := filepath.Join(dir, "fake.png")
	require.NoError(t, os.WriteFile(fake, []byte("definitely not a png"), 0o644))
	assert.Error(t, reg.Sniff(fake, PNG))

	txt := filepath.Join(dir, "anything.txt")
	require.NoError(t, os.WriteFile(txt, []byte{0, 1, 2}, 0o644))
	assert.NoError(t, reg.Sniff(txt, TXT))
}
