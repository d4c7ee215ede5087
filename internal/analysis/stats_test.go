package analysis

import (
	"errors"
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStatistics_Basic(t *testing.T) {
	ds := column("v", 1.0, 2.0, 3.0, 4.0, 100.0)
	s, err := CalculateStatistics(ds, "v", DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 22.0, s.Mean, 1e-12)
	assert.InDelta(t, 3.0, s.Median, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	// population: sqrt(7610/5)
	assert.InDelta(t, math.Sqrt(1522), s.StdDev, 1e-9)
}

func TestCalculateStatistics_DropsMissingAndMalformed(t *testing.T) {
	ds := column("v", "1", nil, "abc", 3.0, true, "")
	s, err := CalculateStatistics(ds, "v", DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 2.0, s.Mean)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 1.0, s.StdDev)
}

func TestCalculateStatistics_EvenMedian(t *testing.T) {
	ds := column("v", 4.0, 1.0, 3.0, 2.0)
	s, err := CalculateStatistics(ds, "v", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Median)
	// input order untouched
	assert.Equal(t, Number(4), ds.Records[0]["v"])
}

func TestCalculateStatistics_SingleValue(t *testing.T) {
	s, err := CalculateStatistics(column("v", 7.0), "v", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, &StatSummary{Count: 1, Mean: 7, Median: 7, Min: 7, Max: 7, StdDev: 0}, s)
}

func TestCalculateStatistics_NoUsableValues(t *testing.T) {
	s, err := CalculateStatistics(column("v", "x", nil, "y"), "v", DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCalculateStatistics_InvalidInput(t *testing.T) {
	_, err := CalculateStatistics(Dataset{Columns: []string{"v"}}, "v", DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = CalculateStatistics(column("v", 1.0), "missing", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "missing", aerr.Column)
}

func TestCalculateStatistics_MinMedianMaxInvariant(t *testing.T) {
	columns := [][]any{
		{1.0},
		{3.0, 1.0},
		{-5.0, 0.0, 5.0, 10.0},
		{0.1, 0.1, 0.1},
		{"1e6", "-1e6", "2", "abc", nil},
		{9.0, 8.0, 7.0, 6.0, 5.0, 4.0, 3.0, 2.0, 1.0},
	}
	for _, vals := range columns {
		s, err := CalculateStatistics(column("v", vals...), "v", DefaultOptions())
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.LessOrEqual(t, s.Min, s.Median)
		assert.LessOrEqual(t, s.Median, s.Max)
		assert.GreaterOrEqual(t, s.StdDev, 0.0)
	}
}

func TestReducers(t *testing.T) {
	vals := []float64{2, 4, 9}
	assert.Equal(t, 15.0, Sum(vals))
	assert.Equal(t, 5.0, Mean(vals))
	assert.Equal(t, 2.0, Min(vals))
	assert.Equal(t, 9.0, Max(vals))
	assert.Equal(t, 0.0, Sum(nil))
}

func TestCalculateStatistics_LargeMagnitudesStayFinite(t *testing.T) {
	s, err := CalculateStatistics(column("v", 1e308, 1.5e308), "v", DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.InEpsilon(t, 1.25e308, s.Mean, 1e-12)
	assert.InEpsilon(t, 1.25e308, s.Median, 1e-12)
	assert.InEpsilon(t, 0.25e308, s.StdDev, 1e-12)
	assert.LessOrEqual(t, s.Min, s.Median)
	assert.LessOrEqual(t, s.Median, s.Max)

	s, err = CalculateStatistics(column("v", -math.MaxFloat64, math.MaxFloat64, 0.0), "v", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Mean)
	assert.Equal(t, 0.0, s.Median)
	assert.False(t, math.IsInf(s.StdDev, 0))
	assert.False(t, math.IsNaN(s.StdDev))

	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestMean_LargeMagnitudes(t *testing.T) {
	assert.InEpsilon(t, 1.25e308, Mean([]float64{1e308, 1.5e308}), 1e-12)
}
