package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	anaData       dataFlags
	anaOutputPath string
	anaSampleRows int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file and produce a concise Markdown summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, opt, err := anaData.load(cmd, path)
		if err != nil {
			return err
		}
		sample := anaSampleRows
		if !cmd.Flags().Changed("sample-rows") && cfg != nil {
			sample = cfg.SampleRows
		}
		rep := analysis.Summarize(filepath.Base(path), ds, opt, sample)
		return emit(cmd, anaOutputPath, []byte(rep.Markdown()), "analysis")
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaData.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the summary to this file instead of stdout")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
}
