package converters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
	"github.com/flanksource/transmute/testutil"
)

func TestCellValue(t *testing.T) {
	assert.Equal(t, int64(42), cellValue("42"))
	assert.Equal(t, 3.5, cellValue("3.5"))
	assert.Equal(t, "0x1p4", cellValue("0x1p4"))
	assert.Equal(t, "abc", cellValue("abc"))
	assert.Equal(t, "", cellValue(""))
	assert.Equal(t, "00501", cellValue("00501"))
	assert.Equal(t, "1e3", cellValue("1e3"))
	assert.Equal(t, "NaN", cellValue("NaN"))
	assert.Equal(t, "1.50", cellValue("1.50"))
	assert.Equal(t, "12345678901234567890", cellValue("12345678901234567890"))
	assert.Equal(t, int64(123456789012345), cellValue("123456789012345"))
	assert.Equal(t, -0.25, cellValue("-0.25"))
}

func TestCSVToXLSXKeepsText(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "ids.csv", []byte("00501,1e3,NaN,12345678901234567890\n"))
	xlsx := filepath.Join(dir, "ids.xlsx")
	back := filepath.Join(dir, "back.csv")

	require.NoError(t, tableConvert{source: formats.CSV, target: formats.XLSX}.Convert(registry.Context{}, in, xlsx))
	require.NoError(t, tableConvert{source: formats.XLSX, target: formats.CSV}.Convert(registry.Context{}, xlsx, back))
	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "00501,1e3,NaN,12345678901234567890\n", string(data))
}

func TestPadded(t *testing.T) {
	got := Table{{"a"}, {"b", "c", "d"}, {}}.padded()
	assert.Equal(t, Table{{"a", "", ""}, {"b", "c", "d"}, {"", "", ""}}, got)
}

func TestCSVToXLSXAndBack(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "data.csv", []byte("name,qty,price\nwidget,3,1.25\n\"gadget, large\",10\n"))
	xlsx := filepath.Join(dir, "data.xlsx")
	csv := filepath.Join(dir, "back.csv")

	require.NoError(t, tableConvert{source: formats.CSV, target: formats.XLSX}.Convert(registry.Context{}, in, xlsx))
	rows, sheet, err := readXLSX(xlsx)
	require.NoError(t, err)
	assert.NotEmpty(t, sheet)
	assert.Equal(t, Table{
		{"name", "qty", "price"},
		{"widget", "3", "1.25"},
		{"gadget, large", "10", ""},
	}, rows)

	require.NoError(t, tableConvert{source: formats.XLSX, target: formats.CSV}.Convert(registry.Context{}, xlsx, csv))
	data, err := os.ReadFile(csv)
	require.NoError(t, err)
	assert.Equal(t, "name,qty,price\nwidget,3,1.25\n\"gadget, large\",10,\n", string(data))
}

func TestTableRender(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "data.csv", []byte("region,total\nnorth,10\nsouth,20\n"))
	out := filepath.Join(dir, "data.pdf")
	require.NoError(t, tableRender{source: formats.CSV}.Convert(registry.Context{}, in, out))
	testutil.AssertValidPDF(t, out)
}

func TestTableRenderTruncatesWideTables(t *testing.T) {
	dir := t.TempDir()
	row := ""
	for i := 0; i < maxTableColumns+3; i++ {
		if i > 0 {
			row += ","
		}
		row += "c"
	}
	in := testutil.WriteFile(t, dir, "wide.csv", []byte(row+"\n"+row+"\n"))
	out := filepath.Join(dir, "wide.pdf")
	require.NoError(t, tableRender{source: formats.CSV}.Convert(registry.Context{}, in, out))
	testutil.AssertValidPDF(t, out)
}

func TestTableRenderEmpty(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "empty.csv", []byte(""))
	err := tableRender{source: formats.CSV}.Convert(registry.Context{}, in, filepath.Join(dir, "empty.pdf"))
	assert.Error(t, err)
}
