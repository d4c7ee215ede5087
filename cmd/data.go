package cmd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// dataFlags are the load and inference flags shared by every command that
// reads a data file. Unset flags fall back to the loaded config.
type dataFlags struct {
	delimiter        string
	sheetName        string
	maxRows          int
	decimal          string
	thousands        string
	typeThreshold    float64
	anomalyThreshold float64
	direction        string
}

func (d *dataFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&d.delimiter, "delimiter", "", "CSV delimiter (',', ';', '|', 'tab'); auto-detected if empty")
	fs.StringVar(&d.sheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
	fs.IntVar(&d.maxRows, "max-rows", 0, "max rows to read (0 = all)")
	fs.StringVar(&d.decimal, "decimal", "", "decimal separator ('.'|'comma'); auto-detected if empty")
	fs.StringVar(&d.thousands, "thousands", "", "thousands separator (','|'.'|'space'); auto-detected if empty")
	fs.Float64Var(&d.typeThreshold, "type-threshold", 0, "fraction of values that must match a type (default 0.8)")
	fs.Float64Var(&d.anomalyThreshold, "anomaly-threshold", 0, "|z| at or above which a value is an anomaly (default 2.0)")
	fs.StringVar(&d.direction, "direction", "", "anomaly direction: both|upper|lower")
}

// options resolves analysis options: config first, then explicit flags.
func (d *dataFlags) options(cmd *cobra.Command) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if c, err := currentConfig(); err == nil {
		if opt, err = c.AnalysisOptions(); err != nil {
			return opt, fmt.Errorf("config: %w", err)
		}
	}
	f := cmd.Flags()
	if f.Changed("type-threshold") {
		if d.typeThreshold <= 0 || d.typeThreshold > 1 {
			return opt, fmt.Errorf("--type-threshold must be in (0, 1], got %v", d.typeThreshold)
		}
		opt.TypeThreshold = d.typeThreshold
	}
	if f.Changed("anomaly-threshold") {
		if d.anomalyThreshold <= 0 {
			return opt, fmt.Errorf("--anomaly-threshold must be positive, got %v", d.anomalyThreshold)
		}
		opt.AnomalyThreshold = d.anomalyThreshold
	}
	if f.Changed("direction") {
		dir, err := analysis.ParseDirection(d.direction)
		if err != nil {
			return opt, err
		}
		opt.AnomalyDirection = dir
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(d.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", d.decimal)
	}
	switch strings.ToLower(d.thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", d.thousands)
	}
	return opt, nil
}

func (d *dataFlags) loadOptions() (loader.LoadOptions, error) {
	lo := loader.LoadOptions{SheetName: d.sheetName, MaxRows: d.maxRows}
	if lo.MaxRows == 0 && cfg != nil {
		lo.MaxRows = cfg.MaxRows
	}
	switch d.delimiter {
	case "":
	case "\t", "tab":
		lo.Delimiter = '\t'
	default:
		if utf8.RuneCountInString(d.delimiter) != 1 {
			return lo, fmt.Errorf("unsupported --delimiter: %s", d.delimiter)
		}
		lo.Delimiter, _ = utf8.DecodeRuneInString(d.delimiter)
	}
	return lo, nil
}

// load reads path and resolves the analysis options in one step.
func (d *dataFlags) load(cmd *cobra.Command, path string) (analysis.Dataset, analysis.Options, error) {
	opt, err := d.options(cmd)
	if err != nil {
		return analysis.Dataset{}, opt, err
	}
	lo, err := d.loadOptions()
	if err != nil {
		return analysis.Dataset{}, opt, err
	}
	ds, err := loader.LoadFile(path, lo)
	if err != nil {
		return analysis.Dataset{}, opt, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("dataset loaded", zap.String("path", path), zap.Int("rows", ds.Len()), zap.Int("columns", len(ds.Columns)))
	return *ds, opt, nil
}

// parsePredicates turns repeated --where values into predicates.
func parsePredicates(where []string) ([]analysis.Predicate, error) {
	preds := make([]analysis.Predicate, 0, len(where))
	for _, w := range where {
		p, err := analysis.ParsePredicate(w)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// emit writes data to outPath when set, otherwise to the command's stdout.
func emit(cmd *cobra.Command, outPath string, data []byte, what string) error {
	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := utils.SafeWriteFile(outPath, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, outPath)
	return nil
}

// emitJSON is emit for indented JSON.
func emitJSON(cmd *cobra.Command, outPath string, v any, what string) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return emit(cmd, outPath, b, what)
}

// numericColumns keeps the columns of cols inferred as numbers. Other columns
// are skipped with a warning on stderr.
func numericColumns(cmd *cobra.Command, ds analysis.Dataset, cols []string, types analysis.ColumnTypeMap) ([]string, error) {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !ds.HasColumn(c) {
			return nil, analysis.NewColumnNotFoundError(cmd.Name(), c)
		}
		if types[c] != analysis.TypeNumber {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: skipping column %q: inferred type is %s, not number\n", c, types[c])
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
