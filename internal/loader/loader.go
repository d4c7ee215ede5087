// Package loader turns CSV, TSV and XLSX files into analysis datasets.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	// ErrUnsupported indicates the file extension is not a known tabular format.
	ErrUnsupported = errors.New("unsupported file format; use CSV or Excel (.xlsx) files")
	// ErrEmpty indicates the file holds no header or no data rows.
	ErrEmpty = errors.New("file is empty or could not be parsed")
)

// Format is a supported tabular format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// LoadOptions controls parsing.
type LoadOptions struct {
	// Delimiter overrides CSV delimiter sniffing (0 = sniff).
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// MaxRows caps the number of data rows kept (0 = unlimited).
	MaxRows int
}

// DetectFormat maps a file name, bare extension ("csv") or MIME type
// ("text/csv") to a Format.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(ext, "spreadsheetml.sheet"):
		return FormatXLSX, nil
	case strings.Contains(ext, "tab-separated-values"):
		return FormatTSV, nil
	}
	if i := strings.LastIndexAny(ext, "./"); i >= 0 {
		ext = ext[i+1:]
	}
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// LoadFile reads and parses the file at path.
func LoadFile(path string, opt LoadOptions) (*analysis.Dataset, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return LoadBytes(filepath.Base(path), data, opt)
}

// LoadBytes parses data whose format is taken from name's extension.
func LoadBytes(name string, data []byte, opt LoadOptions) (*analysis.Dataset, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	var rows [][]string
	switch format {
	case FormatCSV, FormatTSV:
		rows, err = readDelimited(data, format, opt.Delimiter)
	case FormatXLSX:
		rows, err = readXLSX(data, opt.SheetName)
	}
	if err != nil {
		return nil, err
	}
	return build(rows, opt.MaxRows)
}

// build converts raw string rows (header first) into a dataset.
func build(rows [][]string, maxRows int) (*analysis.Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	columns := normalizeHeader(rows[0])
	if len(columns) == 0 {
		return nil, ErrEmpty
	}
	ds := &analysis.Dataset{Columns: columns}
	for _, row := range rows[1:] {
		if maxRows > 0 && len(ds.Records) >= maxRows {
			break
		}
		rec := make(analysis.Record, len(columns))
		blank := true
		for i, col := range columns {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				rec[col] = analysis.Null()
				continue
			}
			rec[col] = analysis.Text(row[i])
			blank = false
		}
		if blank {
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	if len(ds.Records) == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

// normalizeHeader trims names, fills blanks with column_N and suffixes
// duplicates with _2, _3 and so on.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if seen[name] {
			for n := 2; ; n++ {
				cand := name + "_" + strconv.Itoa(n)
				if !seen[cand] {
					name = cand
					break
				}
			}
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
