package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

type fakeClassifier struct {
	intent  *Intent
	err     error
	columns []string
	sample  int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, columns []string, sample []analysis.Record) (*Intent, error) {
	f.columns = columns
	f.sample = len(sample)
	return f.intent, f.err
}

func sales() analysis.Dataset {
	units := []float64{10, 11, 9, 10, 12, 10, 11, 9, 10, 95}
	rows := make([]map[string]any, len(units))
	for i, u := range units {
		region := "north"
		if i%2 == 1 {
			region = "south"
		}
		rows[i] = map[string]any{"region": region, "units": u, "price": "1.5"}
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]any{"region": "west", "units": 10.0, "price": "1.5"})
	}
	return analysis.NewDataset([]string{"region", "units", "price"}, rows)
}

func run(t *testing.T, in *Intent, q string) *Result {
	t.Helper()
	svc := NewService(&fakeClassifier{intent: in}, analysis.DefaultOptions(), zaptest.NewLogger(t))
	res, err := svc.Run(context.Background(), Request{Query: q, Data: sales()})
	require.NoError(t, err)
	return res
}

func TestRun_Statistics(t *testing.T) {
	res := run(t, &Intent{Type: IntentStatistics, Message: "Here are the stats"}, "describe")
	assert.Equal(t, IntentStatistics, res.Type)
	assert.Equal(t, "Here are the stats", res.Message)
	require.Len(t, res.Table, 2)
	assert.Equal(t, "units", res.Table[0]["column"])
	assert.Equal(t, 15, res.Table[0]["count"])
	assert.Equal(t, "price", res.Table[1]["column"])
	require.Contains(t, res.Statistics, "units")
	assert.InDelta(t, 237.0/15, res.Statistics["units"].Mean, 1e-9)

	require.NotNil(t, res.Chart)
	assert.Equal(t, "bar", res.Chart.Type)
	assert.Equal(t, "name", res.Chart.XKey)
	require.Len(t, res.Chart.Data, 2)
	assert.Equal(t, 1.5, res.Chart.Data[1]["value"])
}

func TestRun_VisualizationDefaults(t *testing.T) {
	res := run(t, &Intent{Type: IntentVisualization}, "plot units")
	require.NotNil(t, res.Chart)
	assert.Equal(t, "line", res.Chart.Type)
	assert.Equal(t, "region", res.Chart.XKey)
	assert.Equal(t, "units", res.Chart.YKey)
	require.Len(t, res.Chart.Data, 3)
	assert.Equal(t, "north", res.Chart.Data[0]["region"])
	assert.InDelta(t, 10.4, res.Chart.Data[0]["units"], 1e-9)
	assert.InDelta(t, 27.0, res.Chart.Data[1]["units"], 1e-9)
	assert.InDelta(t, 10.0, res.Chart.Data[2]["units"], 1e-9)
	assert.Empty(t, res.Warnings)
}

func TestRun_VisualizationUnknownAxisFallsBack(t *testing.T) {
	res := run(t, &Intent{Type: IntentVisualization, Visualization: &Visualization{ChartType: "bar", XAxis: "month"}}, "plot by month")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "month")
	// fallback: mean of the first numeric column
	require.NotNil(t, res.Chart)
	assert.Equal(t, "bar", res.Chart.Type)
	require.Len(t, res.Chart.Data, 1)
	assert.Equal(t, "units", res.Chart.Data[0]["name"])
}

func TestRun_VisualizationTextYAxisFallsBackToNumeric(t *testing.T) {
	res := run(t, &Intent{Type: IntentVisualization, Visualization: &Visualization{YAxis: "region"}}, "plot regions")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"region" is not numeric`)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "units", res.Chart.YKey)
	require.Len(t, res.Chart.Data, 3)
	assert.InDelta(t, 10.4, res.Chart.Data[0]["units"], 1e-9)
}

func TestRun_VisualizationSkipsTextOnlyData(t *testing.T) {
	// mostly non-numeric, so inferred as text even though two cells parse
	ds := analysis.NewDataset([]string{"k", "code"}, []map[string]any{
		{"k": "a", "code": "12"},
		{"k": "a", "code": "abc"},
		{"k": "b", "code": "x1"},
		{"k": "b", "code": "zz"},
		{"k": "b", "code": "7"},
	})
	in := &Intent{Type: IntentVisualization, Visualization: &Visualization{XAxis: "k", YAxis: "code"}}
	svc := NewService(&fakeClassifier{intent: in}, analysis.DefaultOptions(), nil)
	res, err := svc.Run(context.Background(), Request{Query: "plot code", Data: ds})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "not numeric")
	assert.Nil(t, res.Chart)
}

func TestRun_SQLAnomalies(t *testing.T) {
	for _, q := range []string{"Find outliers please", "покажи аномалии", "any ANOMALY?"} {
		res := run(t, &Intent{Type: IntentSQL}, q)
		require.Len(t, res.Table, 1, q)
		row := res.Table[0]
		assert.Equal(t, "units", row["column"])
		assert.Equal(t, 9, row["row_index"])
		assert.Equal(t, 95.0, row["value"])
		assert.Greater(t, row["deviation"].(float64), 2.0)
	}
}

func TestRun_SQLPreviewAndText(t *testing.T) {
	res := run(t, &Intent{Type: "text", SQL: "SELECT * FROM data"}, "show rows")
	assert.Equal(t, IntentText, res.Type)
	assert.Len(t, res.Table, 15)

	res = run(t, &Intent{Type: "weird"}, "hello")
	assert.Equal(t, IntentText, res.Type)
	assert.Equal(t, "Query processed", res.Message)
	assert.Len(t, res.Table, 15)
	assert.Equal(t, "north", res.Table[0]["region"])
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "units", res.Chart.Data[0]["name"])
}

func TestRun_PreviewLimits(t *testing.T) {
	rows := make([]map[string]any, 60)
	for i := range rows {
		rows[i] = map[string]any{"name": "row"}
	}
	ds := analysis.NewDataset([]string{"name"}, rows)
	svc := NewService(&fakeClassifier{intent: &Intent{Type: IntentSQL}}, analysis.DefaultOptions(), nil)
	res, err := svc.Run(context.Background(), Request{Query: "list", Data: ds})
	require.NoError(t, err)
	assert.Len(t, res.Table, 50)
	assert.Nil(t, res.Chart)

	fc := &fakeClassifier{}
	svc = NewService(fc, analysis.DefaultOptions(), nil)
	res, err = svc.Run(context.Background(), Request{Query: "list", Data: ds})
	require.NoError(t, err)
	assert.Len(t, res.Table, 20)
	assert.Equal(t, 10, fc.sample)
	assert.Equal(t, []string{"name"}, fc.columns)
}

func TestRun_InvalidInput(t *testing.T) {
	svc := NewService(&fakeClassifier{intent: &Intent{}}, analysis.DefaultOptions(), nil)
	_, err := svc.Run(context.Background(), Request{Query: "  ", Data: sales()})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
	_, err = svc.Run(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)

	boom := errors.New("boom")
	svc = NewService(&fakeClassifier{err: boom}, analysis.DefaultOptions(), nil)
	_, err = svc.Run(context.Background(), Request{Query: "q", Data: sales()})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestRun_LogsEachQuery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewService(&fakeClassifier{intent: &Intent{Type: IntentStatistics}}, analysis.DefaultOptions(), zap.New(core))
	res, err := svc.Run(context.Background(), Request{Query: "stats", Data: sales()})
	require.NoError(t, err)

	entries := logs.FilterMessage("query processed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, res.ID, fields["id"])
	assert.Equal(t, "statistics", fields["intent"])
	assert.Equal(t, int64(15), fields["rows"])
}

func TestFixedClassifier(t *testing.T) {
	fc := FixedClassifier{Intent: Intent{Type: "VISUALIZATION", Visualization: &Visualization{XAxis: "a"}}}
	in, err := fc.Classify(context.Background(), "q", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, IntentVisualization, in.Type)
	assert.NotEmpty(t, in.Message)
	in.Visualization.XAxis = "b"
	assert.Equal(t, "a", fc.Intent.Visualization.XAxis)
}
