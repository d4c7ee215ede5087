package analysis

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Dataset is an ordered sequence of records sharing an authoritative column list.
// Operations never mutate a Dataset; they return new values.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// NewDataset builds a Dataset from plain rows (e.g. decoded JSON objects).
func NewDataset(columns []string, rows []map[string]any) Dataset {
	ds := Dataset{Columns: append([]string(nil), columns...), Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		rec := make(Record, len(row))
		for k, v := range row {
			rec[k] = CellOf(v)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds
}

func (d Dataset) Len() int { return len(d.Records) }

// HasColumn reports whether name is one of the dataset's columns.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Head returns a dataset holding at most the first n records.
func (d Dataset) Head(n int) Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d.Records) {
		n = len(d.Records)
	}
	return Dataset{Columns: d.Columns, Records: d.Records[:n:n]}
}

// Rows flattens records into plain values for rendering.
func (d Dataset) Rows() []map[string]any {
	out := make([]map[string]any, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Values()
	}
	return out
}

// Fingerprint hashes columns and cell values in column order. Equal content
// yields equal fingerprints regardless of map iteration order.
func (d Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	for _, c := range d.Columns {
		_, _ = h.WriteString(c)
		_, _ = h.Write([]byte{0})
	}
	var buf [8]byte
	for _, r := range d.Records {
		for _, col := range d.Columns {
			c := r[col]
			_, _ = h.Write([]byte{byte(c.kind)})
			switch c.kind {
			case KindNumber:
				bits := math.Float64bits(c.num)
				for i := range buf {
					buf[i] = byte(bits >> (8 * i))
				}
				_, _ = h.Write(buf[:])
			case KindText:
				_, _ = h.WriteString(c.text)
			case KindBool:
				_, _ = h.WriteString(strconv.FormatBool(c.b))
			}
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

func (d Dataset) column(op, name string) error {
	if len(d.Records) == 0 {
		return newEmptyDatasetError(op)
	}
	if name == "" {
		return NewInvalidInputError(op, "column name is required")
	}
	if !d.HasColumn(name) {
		return NewColumnNotFoundError(op, name)
	}
	return nil
}
