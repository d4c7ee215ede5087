package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	filterData   dataFlags
	filterWhere  []string
	filterLimit  int
	filterOutput string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Print rows matching every --where predicate as JSON",
	Example: `  datalens filter sales.csv --where "region=north" --where "units>=10"
  datalens filter people.xlsx --where "city~berlin" --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preds, err := parsePredicates(filterWhere)
		if err != nil {
			return err
		}
		ds, opt, err := filterData.load(cmd, args[0])
		if err != nil {
			return err
		}
		out, err := analysis.FilterData(ds, preds, opt)
		if err != nil {
			return err
		}
		if filterLimit > 0 {
			out = out.Head(filterLimit)
		}
		return emitJSON(cmd, filterOutput, out.Rows(), "rows")
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterData.register(filterCmd.Flags())
	filterCmd.Flags().StringArrayVarP(&filterWhere, "where", "w", nil, "predicate like col>=3, col=x, col!=x, col~sub (repeatable, ANDed)")
	filterCmd.Flags().IntVar(&filterLimit, "limit", 0, "max rows to print (0 = all)")
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "write JSON to this file instead of stdout")
}
