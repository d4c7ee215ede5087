package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	groupData   dataFlags
	groupBy     string
	groupValue  string
	groupAgg    string
	groupWhere  []string
	groupOutput string
)

var groupCmd = &cobra.Command{
	Use:   "group <file>",
	Short: "Group rows by a column and aggregate a numeric column",
	Example: `  datalens group sales.csv --by region --value units --agg mean
  datalens group sales.csv --by region --value units --agg sum --where "units>0"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preds, err := parsePredicates(groupWhere)
		if err != nil {
			return err
		}
		ds, opt, err := groupData.load(cmd, args[0])
		if err != nil {
			return err
		}
		if !ds.HasColumn(groupValue) {
			return fmt.Errorf("value column %q not found", groupValue)
		}
		if len(preds) > 0 {
			if ds, err = analysis.FilterData(ds, preds, opt); err != nil {
				return err
			}
		}
		groups, err := analysis.GroupBy(ds, groupBy)
		if err != nil {
			return err
		}
		out, err := analysis.AggregateGroups(groups, groupValue, groupAgg, opt)
		if err != nil {
			return err
		}
		return emitJSON(cmd, groupOutput, out, "groups")
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupData.register(groupCmd.Flags())
	groupCmd.Flags().StringVar(&groupBy, "by", "", "column to group by")
	groupCmd.Flags().StringVar(&groupValue, "value", "", "numeric column to aggregate")
	groupCmd.Flags().StringVar(&groupAgg, "agg", "mean", "aggregation: mean|sum|count|min|max")
	groupCmd.Flags().StringArrayVarP(&groupWhere, "where", "w", nil, "filter rows before grouping (repeatable, ANDed)")
	groupCmd.Flags().StringVarP(&groupOutput, "output", "o", "", "write JSON to this file instead of stdout")
	_ = groupCmd.MarkFlagRequired("by")
	_ = groupCmd.MarkFlagRequired("value")
}
