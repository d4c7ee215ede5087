// Package query dispatches natural-language questions about a dataset to the
// analysis engine according to a classified intent.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

// IntentType is the kind of answer a question asks for.
type IntentType string

const (
	IntentStatistics    IntentType = "statistics"
	IntentVisualization IntentType = "visualization"
	IntentSQL           IntentType = "sql"
	IntentText          IntentType = "text"
)

// ParseIntentType normalizes a type name. Unknown or empty names map to text.
func ParseIntentType(s string) IntentType {
	switch t := IntentType(strings.ToLower(strings.TrimSpace(s))); t {
	case IntentStatistics, IntentVisualization, IntentSQL:
		return t
	}
	return IntentText
}

// Visualization carries chart hints from the classifier.
type Visualization struct {
	ChartType string `json:"chartType,omitempty"`
	XAxis     string `json:"xAxis,omitempty"`
	YAxis     string `json:"yAxis,omitempty"`
}

// Intent is a classified question.
type Intent struct {
	Type          IntentType     `json:"type"`
	Message       string         `json:"message,omitempty"`
	Description   string         `json:"description,omitempty"`
	SQL           string         `json:"sql,omitempty"`
	Visualization *Visualization `json:"visualization,omitempty"`
}

// Classifier turns a question plus dataset context into an Intent.
type Classifier interface {
	Classify(ctx context.Context, question string, columns []string, sample []analysis.Record) (*Intent, error)
}

// FixedClassifier always returns the same intent. The CLI uses it when the
// intent is given on the command line.
type FixedClassifier struct {
	Intent Intent
}

func (f FixedClassifier) Classify(_ context.Context, question string, _ []string, _ []analysis.Record) (*Intent, error) {
	in := f.Intent
	in.Type = ParseIntentType(string(in.Type))
	if in.Message == "" {
		in.Message = fmt.Sprintf("Answering %q as %s", question, in.Type)
	}
	if in.Visualization != nil {
		v := *in.Visualization
		in.Visualization = &v
	}
	return &in, nil
}
