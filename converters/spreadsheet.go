package converters

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/xuri/excelize/v2"

	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// maxTableColumns is the widest table rendered to a page; extra columns are
// dropped with a warning.
const maxTableColumns = 12

// Table is a rectangular grid of cells. Rows shorter than the widest row are
// padded with empty strings.
type Table [][]string

func (t Table) width() int {
	w := 0
	for _, r := range t {
		w = max(w, len(r))
	}
	return w
}

func (t Table) padded() Table {
	w := t.width()
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = append(append([]string{}, r...), make([]string, w-len(r))...)
	}
	return out
}

func readCSV(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(decodeText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return Table(records).padded(), nil
}

func writeCSV(t Table, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(t.padded()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) (Table, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, "", err
	}
	return Table(rows).padded(), sheets[0], nil
}

// maxExactDigits is the most significant digits a spreadsheet number keeps.
const maxExactDigits = 15

// cellValue stores a cell as a number only when the number prints back as
// the exact input text, so leading zeros, exponents and long ids survive as
// text.
func cellValue(s string) any {
	if significantDigits(s) > maxExactDigits {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	return s
}

func significantDigits(s string) int {
	digits := strings.TrimLeft(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s), "0")
	return len(digits)
}

func writeXLSX(t Table, out string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range t {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(r))
		for j, v := range r {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(out)
}

// tableConvert moves a table between csv and xlsx.
type tableConvert struct {
	source formats.Format
	target formats.Format
}

func (tableConvert) Name() string { return "excelize" }

func (s tableConvert) read(ctx registry.Context, in string) (Table, error) {
	if s.source == formats.CSV {
		return readCSV(in)
	}
	t, sheet, err := readXLSX(in)
	if err == nil {
		logOf(ctx).Debugf("read sheet %q (%d rows)", sheet, len(t))
	}
	return t, err
}

func (s tableConvert) Convert(ctx registry.Context, in, out string) error {
	t, err := s.read(ctx, in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	if s.target == formats.CSV {
		err = writeCSV(t, out)
	} else {
		err = writeXLSX(t, out)
	}
	if err != nil {
		return NewConverterError(s.Name(), "write", err)
	}
	return nil
}

// tableRender lays a csv or xlsx sheet out as a PDF table, first row bold.
type tableRender struct {
	source formats.Format
}

func (tableRender) Name() string { return "table-render" }

func renderTablePDF(t Table, out string) error {
	cols := t.width()
	if cols == 0 {
		return fmt.Errorf("table is empty")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithMaxGridSize(cols).
		Build()
	m := maroto.New(cfg)

	for i, r := range t {
		style := fontstyle.Normal
		if i == 0 {
			style = fontstyle.Bold
		}
		cells := make([]core.Col, len(r))
		for j, v := range r {
			cells[j] = col.New(1).Add(text.New(v, props.Text{
				Size:  8,
				Style: style,
				Align: align.Left,
				Top:   1,
			}))
		}
		m.AddRow(6, cells...)
	}
	m.AddRows(row.New(2))

	document, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return os.WriteFile(out, document.GetBytes(), 0o644)
}

func (s tableRender) Convert(ctx registry.Context, in, out string) error {
	t, err := tableConvert{source: s.source}.read(ctx, in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	if w := t.width(); w > maxTableColumns {
		logOf(ctx).Warnf("lossy fallback: only the first %d of %d columns fit the page", maxTableColumns, w)
		for i := range t {
			t[i] = t[i][:maxTableColumns]
		}
	}
	if err := renderTablePDF(t, out); err != nil {
		return NewConverterError(s.Name(), "render", err)
	}
	return nil
}
