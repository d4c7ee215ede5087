package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadFile_CSV(t *testing.T) {
	p := writeFile(t, "harvest.csv", "\xEF\xBB\xBF date , plot,alpha,\n"+
		"2024-08-10,A1,12.5,x\n"+
		",,,\n"+
		"2024-08-12,A1,,\n"+
		"2024-08-15,B3\n")
	ds, err := LoadFile(p, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "plot", "alpha", "column_4"}, ds.Columns)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, analysis.Text("12.5"), ds.Records[0]["alpha"])
	assert.True(t, ds.Records[1]["alpha"].IsNull())
	assert.True(t, ds.Records[2]["alpha"].IsNull())
	assert.Equal(t, analysis.Text("B3"), ds.Records[2]["plot"])
}

func TestLoadBytes_SniffsDelimiter(t *testing.T) {
	ds, err := LoadBytes("eu.csv", []byte("name;\"amount; eur\"\nA;1,5\nB;2,25\n"), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "amount; eur"}, ds.Columns)
	assert.Equal(t, analysis.Text("1,5"), ds.Records[0]["amount; eur"])

	ds, err = LoadBytes("t.tsv", []byte("a\tb\n1\t2\n"), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns)

	ds, err = LoadBytes("pipe.csv", []byte("a|b\n1|2\n"), LoadOptions{Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns)
}

func TestLoadBytes_DuplicateHeadersAndMaxRows(t *testing.T) {
	ds, err := LoadBytes("d.csv", []byte("x,x,x_2,x\n1,2,3,4\n5,6,7,8\n9,10,11,12\n"), LoadOptions{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x_2", "x_2_2", "x_3"}, ds.Columns)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, analysis.Text("8"), ds.Records[1]["x_3"])
}

func TestLoadBytes_Errors(t *testing.T) {
	_, err := LoadBytes("old.xls", []byte("x"), LoadOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = LoadBytes("notes.txt", []byte("x"), LoadOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = LoadBytes("a.csv", nil, LoadOptions{})
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = LoadBytes("a.csv", []byte("a,b\n"), LoadOptions{})
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = LoadBytes("a.csv", []byte("a,b\n,\n , \n"), LoadOptions{})
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"a.CSV":     FormatCSV,
		"csv":       FormatCSV,
		"text/csv":  FormatCSV,
		"b.tsv":     FormatTSV,
		"book.xlsx": FormatXLSX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,
	} {
		got, err := DetectFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func writeXLSX(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ignored"}))
	_, err := f.NewSheet("Sales")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sales", "A1", &[]any{"region", "amount"}))
	require.NoError(t, f.SetSheetRow("Sales", "A2", &[]any{"north", 12.5}))
	require.NoError(t, f.SetSheetRow("Sales", "A3", &[]any{"south", 7}))
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestLoadFile_XLSX(t *testing.T) {
	p := writeXLSX(t)

	ds, err := LoadFile(p, LoadOptions{SheetName: "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, analysis.Text("12.5"), ds.Records[0]["amount"])
	assert.Equal(t, analysis.Text("7"), ds.Records[1]["amount"])

	// First sheet only has a header.
	_, err = LoadFile(p, LoadOptions{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = LoadFile(p, LoadOptions{SheetName: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sales")
}
