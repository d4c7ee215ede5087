package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/query"
)

var (
	queryData     dataFlags
	queryIntent   string
	queryChart    string
	queryX        string
	queryY        string
	querySQL      string
	queryProvider string
	queryModel    string
	queryOutput   string
)

var queryCmd = &cobra.Command{
	Use:   "query <file> <question>",
	Short: "Answer a natural-language question about a data file",
	Long: `Classify the question with the configured AI provider and answer it with
statistics, a chart series, a row preview or an anomaly table. Pass --intent to skip
the AI call and force the answer type.`,
	Example: `  datalens query sales.csv "average units per region"
  datalens query sales.csv "plot units by region" --intent visualization --x region --y units --chart bar
  datalens query sales.csv "find anomalies" --intent sql`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, opt, err := queryData.load(cmd, args[0])
		if err != nil {
			return err
		}
		var classifier query.Classifier
		if cmd.Flags().Changed("intent") {
			classifier = fixedClassifier()
		} else {
			c, err := currentConfig()
			if err != nil {
				return err
			}
			if classifier, err = aiClassifier(c, queryProvider, queryModel); err != nil {
				return err
			}
		}
		svc := query.NewService(classifier, opt, logger)
		res, err := svc.Run(cmd.Context(), query.Request{Query: args[1], Data: ds})
		if err != nil {
			return err
		}
		return emitJSON(cmd, queryOutput, res, "answer")
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryData.register(queryCmd.Flags())
	queryCmd.Flags().StringVar(&queryIntent, "intent", "", "answer type without calling AI: statistics|visualization|sql|text")
	queryCmd.Flags().StringVar(&queryChart, "chart", "", "chart type for visualization intents (line|bar|pie|scatter)")
	queryCmd.Flags().StringVar(&queryX, "x", "", "x axis column for visualization intents")
	queryCmd.Flags().StringVar(&queryY, "y", "", "y axis column for visualization intents")
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "query text attached to the intent; routes to the row preview")
	queryCmd.Flags().StringVar(&queryProvider, "provider", "", "AI provider: openrouter|ollama (default from config)")
	queryCmd.Flags().StringVar(&queryModel, "model", "", "model name (default from config)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "write JSON to this file instead of stdout")
}

func fixedClassifier() query.FixedClassifier {
	in := query.Intent{Type: query.ParseIntentType(queryIntent), SQL: querySQL}
	if queryChart != "" || queryX != "" || queryY != "" {
		in.Visualization = &query.Visualization{ChartType: queryChart, XAxis: queryX, YAxis: queryY}
	}
	return query.FixedClassifier{Intent: in}
}

// aiClassifier builds an IntentClassifier for provider/model, defaulting both
// from config.
func aiClassifier(c *cfgpkg.Global, provider, model string) (*ai.IntentClassifier, error) {
	if provider == "" {
		provider = c.DefaultProvider
	}
	if model == "" {
		model = c.DefaultModel
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("no model configured; set default_model or pass --model")
	}
	rt, err := ai.NewRuntime(provider, runtimeConfig(c))
	if err != nil {
		return nil, err
	}
	return ai.NewIntentClassifier(rt, model), nil
}
