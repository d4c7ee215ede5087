package query

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

const (
	defaultMessage   = "Query processed"
	sampleSize       = 10
	sqlPreviewRows   = 50
	textPreviewRows  = 20
	defaultChartType = "line"
)

// anomalyKeywords trigger anomaly search for sql intents.
var anomalyKeywords = []string{"аномал", "anomal", "outlier"}

// Request is one question against a dataset. Columns defaults to Data.Columns.
type Request struct {
	Query   string
	Columns []string
	Data    analysis.Dataset
}

// Chart is a renderable series.
type Chart struct {
	Type string           `json:"type"`
	Data []map[string]any `json:"data"`
	XKey string           `json:"xKey"`
	YKey string           `json:"yKey"`
}

// Result is the answer to a Request.
type Result struct {
	ID          string                           `json:"id"`
	Type        IntentType                       `json:"type"`
	Message     string                           `json:"message"`
	Description string                           `json:"description"`
	Table       []map[string]any                 `json:"table"`
	Chart       *Chart                           `json:"chart"`
	Statistics  map[string]*analysis.StatSummary `json:"statistics"`
	Warnings    []string                         `json:"warnings,omitempty"`
}

// Service answers questions using a Classifier and the analysis engine.
type Service struct {
	classifier Classifier
	opt        analysis.Options
	logger     *zap.Logger
	newID      func() string
}

// NewService wires a classifier with analysis options. A nil logger is
// replaced with a no-op logger.
func NewService(c Classifier, opt analysis.Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{classifier: c, opt: opt, logger: logger, newID: uuid.NewString}
}

// Run classifies req.Query and builds the matching result.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if strings.TrimSpace(req.Query) == "" {
		return nil, analysis.NewInvalidInputError("query", "query is required")
	}
	if req.Data.Len() == 0 {
		return nil, analysis.NewInvalidInputError("query", "data is required")
	}
	columns := req.Columns
	if len(columns) == 0 {
		columns = req.Data.Columns
	}
	ds := analysis.Dataset{Columns: columns, Records: req.Data.Records}

	types := analysis.DetectColumnTypes(ds, columns, s.opt)
	numeric := types.NumericColumns(columns)

	intent, err := s.classifier.Classify(ctx, req.Query, columns, ds.Head(sampleSize).Records)
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}
	if intent == nil {
		intent = &Intent{}
	}
	intent.Type = ParseIntentType(string(intent.Type))

	res := &Result{
		ID:          s.newID(),
		Type:        intent.Type,
		Message:     intent.Message,
		Description: intent.Description,
	}
	if res.Message == "" {
		res.Message = defaultMessage
	}

	switch {
	case intent.Type == IntentStatistics:
		s.statistics(ds, numeric, res)
	case intent.Type == IntentVisualization:
		s.visualize(ds, columns, numeric, intent.Visualization, res)
	case intent.Type == IntentSQL || intent.SQL != "":
		if mentionsAnomalies(req.Query) {
			s.anomalies(ds, numeric, res)
		} else {
			res.Table = ds.Head(sqlPreviewRows).Rows()
		}
	default:
		res.Table = ds.Head(textPreviewRows).Rows()
	}

	if res.Chart == nil && len(numeric) > 0 {
		if st, err := analysis.CalculateStatistics(ds, numeric[0], s.opt); err == nil && st != nil {
			res.Chart = &Chart{
				Type: "bar",
				Data: []map[string]any{{"name": numeric[0], "value": st.Mean}},
				XKey: "name",
				YKey: "value",
			}
		}
	}

	s.logger.Info("query processed",
		zap.String("id", res.ID),
		zap.String("intent", string(res.Type)),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(columns)),
		zap.String("fingerprint", fmt.Sprintf("%016x", ds.Fingerprint())),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *Service) statistics(ds analysis.Dataset, numeric []string, res *Result) {
	res.Statistics = make(map[string]*analysis.StatSummary, len(numeric))
	res.Table = []map[string]any{}
	var bars []map[string]any
	for _, col := range numeric {
		st, err := analysis.CalculateStatistics(ds, col, s.opt)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		if st == nil {
			continue
		}
		res.Statistics[col] = st
		res.Table = append(res.Table, map[string]any{
			"column": col,
			"mean":   st.Mean,
			"median": st.Median,
			"min":    st.Min,
			"max":    st.Max,
			"count":  st.Count,
		})
		bars = append(bars, map[string]any{"name": col, "value": st.Mean})
	}
	if len(bars) > 0 {
		res.Chart = &Chart{Type: "bar", Data: bars, XKey: "name", YKey: "value"}
	}
}

func (s *Service) visualize(ds analysis.Dataset, columns, numeric []string, viz *Visualization, res *Result) {
	var v Visualization
	if viz != nil {
		v = *viz
	}
	chartType := strings.ToLower(strings.TrimSpace(v.ChartType))
	if chartType == "" {
		chartType = defaultChartType
	}
	x, y := v.XAxis, v.YAxis
	if x == "" && len(columns) > 0 {
		x = columns[0]
	}
	if y == "" && len(numeric) > 0 {
		y = numeric[0]
	}
	if chartType != "line" && chartType != "bar" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("chart type %q is not supported; use line or bar", chartType))
		return
	}
	if y != "" && ds.HasColumn(y) && !slices.Contains(numeric, y) {
		if len(numeric) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cannot plot %q: column is not numeric", y))
			return
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("y axis %q is not numeric; plotting %q instead", y, numeric[0]))
		y = numeric[0]
	}
	for _, axis := range []string{x, y} {
		if axis == "" || !ds.HasColumn(axis) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cannot plot %q against %q: axis is not a dataset column", y, x))
			return
		}
	}
	groups, err := analysis.GroupBy(ds, x)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	aggs, err := analysis.AggregateGroups(groups, y, string(analysis.AggMean), s.opt)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	points := make([]map[string]any, 0, len(aggs))
	for _, a := range aggs {
		var val any
		if a.Value != nil {
			val = *a.Value
		}
		points = append(points, map[string]any{x: a.Group.Value(), y: val})
	}
	res.Chart = &Chart{Type: chartType, Data: points, XKey: x, YKey: y}
}

func (s *Service) anomalies(ds analysis.Dataset, numeric []string, res *Result) {
	res.Table = []map[string]any{}
	for _, col := range numeric {
		found, err := analysis.FindAnomalies(ds, col, s.opt)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		for _, a := range found {
			res.Table = append(res.Table, map[string]any{
				"column":    col,
				"row_index": a.Index,
				"value":     a.Value,
				"deviation": a.Deviation,
			})
		}
	}
}

func mentionsAnomalies(q string) bool {
	q = strings.ToLower(q)
	for _, k := range anomalyKeywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
