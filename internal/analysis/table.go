package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  []Record
	Columns  []string
	Warnings []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    ColumnType
	NonNull int
	Missing int
	Stats   *StatSummary
	// Anomalies (z-score against the population stddev)
	Anomalies        []Anomaly
	AnomalyThreshold float64
	// Categorical top values
	TopValues []CategoryCount
	Unique    int
}

type CategoryCount struct {
	Value string
	Count int
}

// Summarize runs type detection, statistics and anomaly detection over every
// column of ds and keeps up to sampleRows example rows.
func Summarize(name string, ds Dataset, opt Options, sampleRows int) *Report {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	rep := &Report{Name: name, Rows: ds.Len(), Columns: ds.Columns}
	rep.Samples = ds.Head(sampleRows).Records
	if ds.Len() == 0 {
		rep.Warnings = append(rep.Warnings, "dataset has no rows")
	}
	types := DetectColumnTypes(ds, ds.Columns, opt)
	for _, col := range ds.Columns {
		s := ColumnSummary{Name: col, Kind: types[col]}
		cats := map[string]int{}
		for _, r := range ds.Records {
			c := r[col]
			if c.IsMissing() {
				s.Missing++
				continue
			}
			s.NonNull++
			if len(cats) <= 10000 { // guard memory
				if v := c.String(); len(v) <= 64 {
					cats[v]++
				}
			}
		}
		switch s.Kind {
		case TypeNumber:
			st, err := CalculateStatistics(ds, col, opt)
			if err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", col, err))
				break
			}
			s.Stats = st
			an, err := FindAnomalies(ds, col, opt)
			if err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", col, err))
				break
			}
			s.Anomalies = an
			s.AnomalyThreshold = opt.anomalyThreshold()
		case TypeText, TypeBoolean:
			tops := make([]CategoryCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
			s.Unique = len(cats)
		}
		rep.Cols = append(rep.Cols, s)
	}
	return rep
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch {
		case c.Stats != nil:
			s := c.Stats
			b.WriteString(fmt.Sprintf(" — min %.4g, median %.4g, max %.4g, mean %.4g, std %.4g", s.Min, s.Median, s.Max, s.Mean, s.StdDev))
			if c.AnomalyThreshold > 0 {
				b.WriteString(fmt.Sprintf("; anomalies: %d at |z|>=%.1f", len(c.Anomalies), c.AnomalyThreshold))
			}
		case len(c.TopValues) > 0:
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}

	hasAnomalies := false
	for _, c := range r.Cols {
		if len(c.Anomalies) > 0 {
			hasAnomalies = true
			break
		}
	}
	if hasAnomalies {
		b.WriteString("\n[ANOMALIES]\n")
		for _, c := range r.Cols {
			lim := len(c.Anomalies)
			if lim > 10 {
				lim = 10
			}
			for _, a := range c.Anomalies[:lim] {
				b.WriteString(fmt.Sprintf("- %s row %d: %.4g (z=%.2f)\n", safeName(c.Name), a.Index, a.Value, a.Deviation))
			}
			if len(c.Anomalies) > lim {
				b.WriteString(fmt.Sprintf("- %s: %d more\n", safeName(c.Name), len(c.Anomalies)-lim))
			}
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, c := range r.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := row[c].String()
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
