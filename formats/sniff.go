package formats

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Sniff checks that the bytes at path look like format f. Formats without
// MIME types (plain text, markup, media containers) always pass.
func (r *Registry) Sniff(path string, f Format) error {
	spec, ok := r.specs[f]
	if !ok {
		return fmt.Errorf("unknown format %q", f)
	}
	if len(spec.MIMETypes) == 0 {
		return nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return err
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, want := range spec.MIMETypes {
			if m.Is(want) {
				return nil
			}
		}
	}
	return fmt.Errorf("content is %s, expected one of %s", mt.String(), strings.Join(spec.MIMETypes, ", "))
}
