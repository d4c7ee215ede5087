package analysis

import (
	"fmt"
	"strings"
)

// Op is a column-level comparison.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpContains Op = "contains"
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains:
		return true
	}
	return false
}

func (o Op) numeric() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Predicate is one condition; a filter ANDs all of its predicates.
type Predicate struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  Cell   `json:"value"`
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Column, p.Op, p.Value.String())
}

// FilterData returns the records matching every predicate, in original order,
// with all original columns. Rows missing a referenced column never match.
// The input is not modified; matching records are copied.
func FilterData(ds Dataset, preds []Predicate, opt Options) (Dataset, error) {
	if len(ds.Records) == 0 {
		return Dataset{}, newEmptyDatasetError("filter")
	}
	type compiled struct {
		Predicate
		num   float64
		isNum bool
		lower string
	}
	cps := make([]compiled, 0, len(preds))
	for _, p := range preds {
		if !p.Op.valid() {
			return Dataset{}, &Error{Op: "filter", Column: p.Column, Message: fmt.Sprintf("unsupported operator %q", p.Op)}
		}
		if !ds.HasColumn(p.Column) {
			return Dataset{}, NewColumnNotFoundError("filter", p.Column)
		}
		cp := compiled{Predicate: p, lower: strings.ToLower(p.Value.String())}
		cp.num, cp.isNum = p.Value.Float(opt)
		if p.Op.numeric() && !cp.isNum {
			return Dataset{}, &Error{Op: "filter", Column: p.Column, Message: fmt.Sprintf("operator %s needs a numeric value, got %q", p.Op, p.Value.String())}
		}
		cps = append(cps, cp)
	}

	out := Dataset{Columns: append([]string(nil), ds.Columns...), Records: make([]Record, 0, len(ds.Records))}
	for _, r := range ds.Records {
		pass := true
		for _, cp := range cps {
			c := r[cp.Column]
			if c.IsMissing() || !match(c, cp.Op, cp.Value, cp.num, cp.isNum, cp.lower, opt) {
				pass = false
				break
			}
		}
		if pass {
			out.Records = append(out.Records, r.Clone())
		}
	}
	return out, nil
}

func match(c Cell, op Op, want Cell, wantNum float64, wantIsNum bool, wantLower string, opt Options) bool {
	switch op {
	case OpEq, OpNe:
		var eq bool
		if v, ok := c.Float(opt); ok && wantIsNum {
			eq = v == wantNum
		} else {
			eq = c.String() == want.String()
		}
		return eq == (op == OpEq)
	case OpContains:
		return strings.Contains(strings.ToLower(c.String()), wantLower)
	}
	v, ok := c.Float(opt)
	if !ok {
		return false
	}
	switch op {
	case OpGt:
		return v > wantNum
	case OpGte:
		return v >= wantNum
	case OpLt:
		return v < wantNum
	case OpLte:
		return v <= wantNum
	}
	return false
}

// ParsePredicate parses "column<op>value" where op is one of
// = == != > >= < <= ~ (contains). Whitespace around the parts is trimmed.
func ParsePredicate(s string) (Predicate, error) {
	// Two-character operators first so ">=" is not read as ">".
	ops := []struct {
		tok string
		op  Op
	}{
		{"!=", OpNe}, {">=", OpGte}, {"<=", OpLte}, {"==", OpEq},
		{"=", OpEq}, {">", OpGt}, {"<", OpLt}, {"~", OpContains},
	}
	best, bestOp, bestTok := -1, Op(""), ""
	for _, o := range ops {
		i := strings.Index(s, o.tok)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(o.tok) > len(bestTok)) {
			best, bestOp, bestTok = i, o.op, o.tok
		}
	}
	if best <= 0 {
		return Predicate{}, NewInvalidInputError("filter", fmt.Sprintf("cannot parse predicate %q", s))
	}
	col := strings.TrimSpace(s[:best])
	val := strings.TrimSpace(s[best+len(bestTok):])
	if col == "" {
		return Predicate{}, NewInvalidInputError("filter", fmt.Sprintf("predicate %q has no column", s))
	}
	return Predicate{Column: col, Op: bestOp, Value: Text(val)}, nil
}
