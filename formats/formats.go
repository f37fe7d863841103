// Package formats is the table of file formats transmute understands and the
// filename extensions that map onto them.
package formats

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Format is an opaque lowercase identifier such as "pdf" or "mp4".
type Format string

func (f Format) String() string { return string(f) }

// Family groups formats that share a handler family.
type Family string

const (
	FamilyDocument    Family = "document"
	FamilySpreadsheet Family = "spreadsheet"
	FamilyImage       Family = "image"
	FamilyVector      Family = "vector"
	FamilyVideo       Family = "video"
	FamilyAudio       Family = "audio"
)

const (
	DOCX Format = "docx"
	PDF  Format = "pdf"
	TXT  Format = "txt"
	RTF  Format = "rtf"
	HTML Format = "html"
	ODT  Format = "odt"
	MD   Format = "md"

	XLSX Format = "xlsx"
	CSV  Format = "csv"

	PNG  Format = "png"
	JPG  Format = "jpg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WEBP Format = "webp"
	ICO  Format = "ico"
	SVG  Format = "svg"

	MP4  Format = "mp4"
	AVI  Format = "avi"
	MOV  Format = "mov"
	WMV  Format = "wmv"
	FLV  Format = "flv"
	MKV  Format = "mkv"
	WEBM Format = "webm"
	M4V  Format = "m4v"
	GP3  Format = "3gp"

	MP3  Format = "mp3"
	WAV  Format = "wav"
	AAC  Format = "aac"
	FLAC Format = "flac"
	OGG  Format = "ogg"
	M4A  Format = "m4a"
	WMA  Format = "wma"
)

// Spec describes one format.
type Spec struct {
	Format Format
	Family Family
	// Extensions are lowercase with a leading dot. The first one is canonical
	// and is used when naming output files.
	Extensions []string
	// MIMETypes accepted by content sniffing. Empty disables the check.
	MIMETypes []string
	// Alpha reports whether the raster encoder keeps transparency.
	Alpha bool
	// Raster marks bitmap formats handled by the raster policy.
	Raster bool
}

// Registry is an immutable lookup table over a set of Specs.
type Registry struct {
	specs map[Format]Spec
	byExt map[string]Format
	order []Format
}

// NewRegistry validates specs and indexes them. Every format needs at least
// one extension and no extension may belong to two formats.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		specs: make(map[Format]Spec, len(specs)),
		byExt: make(map[string]Format),
	}
	for _, s := range specs {
		if s.Format == "" {
			return nil, fmt.Errorf("format spec with empty id")
		}
		if _, dup := r.specs[s.Format]; dup {
			return nil, fmt.Errorf("format %s registered twice", s.Format)
		}
		if len(s.Extensions) == 0 {
			return nil, fmt.Errorf("format %s has no extensions", s.Format)
		}
		exts := make([]string, 0, len(s.Extensions))
		for _, ext := range s.Extensions {
			ext = normalizeExt(ext)
			if owner, taken := r.byExt[ext]; taken {
				return nil, fmt.Errorf("extension %s claimed by both %s and %s", ext, owner, s.Format)
			}
			r.byExt[ext] = s.Format
			exts = append(exts, ext)
		}
		s.Extensions = exts
		r.specs[s.Format] = s
		r.order = append(r.order, s.Format)
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(defaultSpecs...)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the built-in format table.
func Default() *Registry {
	return defaultRegistry()
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FormatOf maps a path onto a format using its final extension,
// case-insensitively. Paths without an extension are unknown.
func (r *Registry) FormatOf(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return "", false
	}
	f, ok := r.byExt[strings.ToLower(ext)]
	return f, ok
}

// Parse resolves user input such as "JPEG", ".tif" or "pdf" to a format.
func (r *Registry) Parse(name string) (Format, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	if _, ok := r.specs[Format(name)]; ok {
		return Format(name), true
	}
	f, ok := r.byExt[normalizeExt(name)]
	return f, ok
}

func (r *Registry) IsKnown(f Format) bool {
	_, ok := r.specs[f]
	return ok
}

func (r *Registry) Spec(f Format) (Spec, bool) {
	s, ok := r.specs[f]
	return s, ok
}

func (r *Registry) Family(f Format) Family {
	return r.specs[f].Family
}

// Aliases returns a copy of the extensions registered for f.
func (r *Registry) Aliases(f Format) []string {
	s, ok := r.specs[f]
	if !ok {
		return nil
	}
	return append([]string(nil), s.Extensions...)
}

// OutputExtension is the canonical extension for f, or "" when unknown.
func (r *Registry) OutputExtension(f Format) string {
	s, ok := r.specs[f]
	if !ok {
		return ""
	}
	return s.Extensions[0]
}

// All returns every format in registration order.
func (r *Registry) All() []Format {
	return append([]Format(nil), r.order...)
}

// ByFamily returns the formats of one family in registration order.
func (r *Registry) ByFamily(family Family) []Format {
	var out []Format
	for _, f := range r.order {
		if r.specs[f].Family == family {
			out = append(out, f)
		}
	}
	return out
}

// Sorted returns formats sorted by id.
func Sorted(in []Format) []Format {
	out := append([]Format(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
