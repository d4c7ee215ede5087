package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	statsData    dataFlags
	statsColumns []string
	statsOutput  string
)

type columnStats struct {
	Column string                `json:"column"`
	Type   analysis.ColumnType   `json:"type"`
	Stats  *analysis.StatSummary `json:"stats"`
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Print summary statistics for numeric columns as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, opt, err := statsData.load(cmd, args[0])
		if err != nil {
			return err
		}
		types := analysis.DetectColumnTypes(ds, ds.Columns, opt)
		cols := types.NumericColumns(ds.Columns)
		if len(statsColumns) > 0 {
			if cols, err = numericColumns(cmd, ds, statsColumns, types); err != nil {
				return err
			}
		}
		out := make([]columnStats, 0, len(cols))
		for _, c := range cols {
			s, err := analysis.CalculateStatistics(ds, c, opt)
			if err != nil {
				return err
			}
			out = append(out, columnStats{Column: c, Type: types[c], Stats: s})
		}
		return emitJSON(cmd, statsOutput, out, "statistics")
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsData.register(statsCmd.Flags())
	statsCmd.Flags().StringSliceVarP(&statsColumns, "column", "c", nil, "column to summarize (repeatable; non-numeric columns are skipped; default all numeric columns)")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "write JSON to this file instead of stdout")
}
