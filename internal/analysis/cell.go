package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind enumerates the primitive kinds a Cell can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Cell is a single table value. The zero value is Null.
// Cells are comparable and can be used as map keys.
type Cell struct {
	kind Kind
	num  float64
	text string
	b    bool
}

func Null() Cell { return Cell{} }
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }
func Text(s string) Cell { return Cell{kind: KindText, text: s} }
func Bool(b bool) Cell { return Cell{kind: KindBool, b: b} }
func (c Cell) Kind() Kind { return c.kind }
func (c Cell) IsNull() bool { return c.kind == KindNull }
func (c Cell) RawText() string { return c.text }

// IsMissing reports whether the cell carries no usable value: Null, blank
// text, or a non-finite number.
func (c Cell) IsMissing() bool {
	switch c.kind {
	case KindNull:
		return true
	case KindText:
		return strings.TrimSpace(c.text) == ""
	case KindNumber:
		return math.IsNaN(c.num) || math.IsInf(c.num, 0)
	}
	return false
}

// Float extracts a usable finite number. Text is parsed with the locale rules
// in opt; booleans are never coerced.
func (c Cell) Float(opt Options) (float64, bool) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return 0, false
		}
		return c.num, true
	case KindText:
		return parseNumeric(c.text, opt)
	}
	return 0, false
}

// String renders the textual form used for equality and substring matching.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	case KindBool:
		return strconv.FormatBool(c.b)
	}
	return ""
}

// Value returns the cell as a plain Go value (float64, string, bool or nil).
func (c Cell) Value() any {
	switch c.kind {
	case KindNumber:
		return c.num
	case KindText:
		return c.text
	case KindBool:
		return c.b
	}
	return nil
}

// CellOf converts a decoded JSON/Go value into a Cell.
func CellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Null()
	case Cell:
		return x
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return Text(x.String())
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(c.num, 'f', -1, 64)), nil
	case KindText:
		return json.Marshal(c.text)
	case KindBool:
		return []byte(strconv.FormatBool(c.b)), nil
	}
	return []byte("null"), nil
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.(type) {
	case map[string]any, []any:
		return fmt.Errorf("cell: unsupported JSON value %s", string(b))
	}
	*c = CellOf(v)
	return nil
}

// Record is one row keyed by column name. A missing key is a missing value.
type Record map[string]Cell

// Get returns the cell for column, Null when absent.
func (r Record) Get(column string) Cell { return r[column] }

// Clone returns a shallow copy; cells are values so nothing is shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values flattens the record into plain Go values for rendering.
func (r Record) Values() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Value()
	}
	return out
}
