package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Group is the set of records sharing one key value. A Null key collects
// every record whose key cell is missing.
type Group struct {
	Key     Cell     `json:"key"`
	Members []Record `json:"members"`
}

// AggregatedGroup is one reduced group. A nil Value means no usable values.
type AggregatedGroup struct {
	Group Cell     `json:"group"`
	Value *float64 `json:"value"`
}

// Aggregation names a scalar reduction.
type Aggregation string

const (
	AggMean  Aggregation = "mean"
	AggSum   Aggregation = "sum"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// ParseAggregation normalizes a name; "avg" is accepted for mean.
func ParseAggregation(name string) (Aggregation, error) {
	switch a := Aggregation(strings.ToLower(strings.TrimSpace(name))); a {
	case AggMean, AggSum, AggCount, AggMin, AggMax:
		return a, nil
	case "avg", "average":
		return AggMean, nil
	}
	return "", NewInvalidInputError("aggregate", fmt.Sprintf("unsupported aggregation %q (use mean|sum|count|min|max)", name))
}

// GroupBy partitions records by the exact value of key. Groups appear in the
// order their key first occurs; members keep dataset order. Every record
// lands in exactly one group.
func GroupBy(ds Dataset, key string) ([]Group, error) {
	if err := ds.column("groupby", key); err != nil {
		return nil, err
	}
	index := make(map[Cell]int)
	var groups []Group
	for _, r := range ds.Records {
		k := groupKey(r[key])
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Members = append(groups[i].Members, r)
	}
	return groups, nil
}

func groupKey(c Cell) Cell {
	if c.IsMissing() {
		return Null()
	}
	return c
}

// AggregateGroups reduces valueColumn within each group. Only usable numeric
// values take part, so count is the number of such values rather than the
// number of rows. Groups without usable values are kept with a nil Value
// (0 for count), as are sums that overflow float64.
func AggregateGroups(groups []Group, valueColumn string, aggregation string, opt Options) ([]AggregatedGroup, error) {
	agg, err := ParseAggregation(aggregation)
	if err != nil {
		return nil, err
	}
	if valueColumn == "" {
		return nil, NewInvalidInputError("aggregate", "value column is required")
	}
	out := make([]AggregatedGroup, 0, len(groups))
	for _, g := range groups {
		vals := numericValues(g.Members, valueColumn, opt)
		out = append(out, AggregatedGroup{Group: g.Key, Value: reduce(agg, vals)})
	}
	return out, nil
}

func reduce(agg Aggregation, vals []float64) *float64 {
	var v float64
	switch agg {
	case AggCount:
		v = float64(len(vals))
		return &v
	}
	if len(vals) == 0 {
		return nil
	}
	switch agg {
	case AggMean:
		v = Mean(vals)
	case AggSum:
		v = Sum(vals)
	case AggMin:
		v = Min(vals)
	case AggMax:
		v = Max(vals)
	}
	if math.IsInf(v, 0) {
		// sum out of float64 range
		return nil
	}
	return &v
}
