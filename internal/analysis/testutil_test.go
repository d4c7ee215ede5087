package analysis

// column builds a single-column dataset from plain values.
func column(name string, vals ...any) Dataset {
	rows := make([]map[string]any, len(vals))
	for i, v := range vals {
		if v == nil {
			rows[i] = map[string]any{}
			continue
		}
		rows[i] = map[string]any{name: v}
	}
	return NewDataset([]string{name}, rows)
}

func textColumn(name string, vals ...string) Dataset {
	row := make([]any, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	return column(name, row...)
}
