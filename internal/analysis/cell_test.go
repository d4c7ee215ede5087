package analysis

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_JSONRoundTrip(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"x","c":true,"d":null}`), &rec))
	assert.Equal(t, Record{"a": Number(1.5), "b": Text("x"), "c": Bool(true), "d": Null()}, rec)

	out, err := json.Marshal(Record{"n": Number(math.NaN()), "v": Number(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":null,"v":3}`, string(out))

	var c Cell
	assert.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
}

func TestCell_Missing(t *testing.T) {
	assert.True(t, Null().IsMissing())
	assert.True(t, Text(" \t").IsMissing())
	assert.True(t, Number(math.Inf(1)).IsMissing())
	assert.False(t, Number(0).IsMissing())
	assert.False(t, Bool(false).IsMissing())

	_, ok := Bool(true).Float(DefaultOptions())
	assert.False(t, ok)
	f, ok := Text("2,5").Float(DefaultOptions())
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestDataset_Fingerprint(t *testing.T) {
	a := NewDataset([]string{"x", "y"}, []map[string]any{{"x": 1.0, "y": "a"}, {"x": 2.0}})
	b := NewDataset([]string{"x", "y"}, []map[string]any{{"y": "a", "x": 1.0}, {"x": 2.0}})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := NewDataset([]string{"x", "y"}, []map[string]any{{"x": 1.0, "y": "a"}, {"x": "2"}})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestDataset_HeadDoesNotAlias(t *testing.T) {
	ds := column("v", 1.0, 2.0, 3.0)
	h := ds.Head(2)
	assert.Equal(t, 2, h.Len())
	h.Records = append(h.Records, Record{"v": Number(9)})
	assert.Equal(t, Number(3), ds.Records[2]["v"])
	assert.Equal(t, 3, ds.Head(10).Len())
}
