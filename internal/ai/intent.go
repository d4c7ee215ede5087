package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/query"
)

const intentSystemPrompt = `You are a data analysis assistant. You receive a table schema, a few sample rows and a user question.
Decide which analysis answers the question and reply with a single JSON object, no prose:
{
  "type": "statistics" | "visualization" | "sql" | "text",
  "message": "short answer for the user, in the user's language",
  "description": "what will be shown",
  "sql": "an illustrative SQL query over table data, only for type sql",
  "visualization": {"chartType": "line" | "bar", "xAxis": "<column>", "yAxis": "<numeric column>"}
}
Use "statistics" for summaries (mean, median, min, max), "visualization" for trends or comparisons,
"sql" for filtering, listing rows or finding anomalies, and "text" otherwise.
Only use column names from the schema.`

// IntentClassifier asks a Runtime to classify questions. It implements query.Classifier.
type IntentClassifier struct {
	Runtime     Runtime
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewIntentClassifier returns a classifier with a small token budget and a
// low temperature.
func NewIntentClassifier(rt Runtime, model string) *IntentClassifier {
	return &IntentClassifier{Runtime: rt, Model: model, MaxTokens: 512, Temperature: 0.1}
}

var _ query.Classifier = (*IntentClassifier)(nil)

func (c *IntentClassifier) Classify(ctx context.Context, question string, columns []string, sample []analysis.Record) (*query.Intent, error) {
	if c.Runtime == nil {
		return nil, errors.New("intent classifier has no runtime")
	}
	user, err := buildIntentPrompt(question, columns, sample)
	if err != nil {
		return nil, err
	}
	resp, err := c.Runtime.Generate(ctx, GenerateRequest{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: intentSystemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:      c.MaxTokens,
		Temperature:    c.Temperature,
		ResponseFormat: JSONObject,
	})
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(resp.Content())
	if content == "" {
		return nil, errors.New("model returned an empty reply")
	}
	return ParseIntent(content), nil
}

func buildIntentPrompt(question string, columns []string, sample []analysis.Record) (string, error) {
	rows, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("marshal sample rows: %w", err)
	}
	var b strings.Builder
	b.WriteString("Schema (columns): ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString("\n\nSample rows (JSON):\n")
	b.Write(rows)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String(), nil
}

// ParseIntent extracts the JSON object from a model reply. Code fences and
// surrounding prose are ignored. A reply without a usable object becomes a
// text intent carrying the reply as its message.
func ParseIntent(reply string) *query.Intent {
	var in query.Intent
	body := reply
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return &query.Intent{Type: query.IntentText, Message: stripFences(reply)}
	}
	in.Type = query.ParseIntentType(string(in.Type))
	return &in
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
