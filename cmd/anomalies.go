package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	anomData    dataFlags
	anomColumns []string
	anomOutput  string
)

type columnAnomaly struct {
	Column string `json:"column"`
	analysis.Anomaly
}

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies <file>",
	Short: "List z-score anomalies in numeric columns as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, opt, err := anomData.load(cmd, args[0])
		if err != nil {
			return err
		}
		types := analysis.DetectColumnTypes(ds, ds.Columns, opt)
		cols := types.NumericColumns(ds.Columns)
		if len(anomColumns) > 0 {
			if cols, err = numericColumns(cmd, ds, anomColumns, types); err != nil {
				return err
			}
		}
		out := []columnAnomaly{}
		for _, c := range cols {
			found, err := analysis.FindAnomalies(ds, c, opt)
			if err != nil {
				return err
			}
			for _, a := range found {
				out = append(out, columnAnomaly{Column: c, Anomaly: a})
			}
		}
		return emitJSON(cmd, anomOutput, out, "anomalies")
	},
}

func init() {
	rootCmd.AddCommand(anomaliesCmd)
	anomData.register(anomaliesCmd.Flags())
	anomaliesCmd.Flags().StringSliceVarP(&anomColumns, "column", "c", nil, "column to scan (repeatable; non-numeric columns are skipped; default all numeric columns)")
	anomaliesCmd.Flags().StringVarP(&anomOutput, "output", "o", "", "write JSON to this file instead of stdout")
}
