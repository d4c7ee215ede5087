package analysis

// ColumnType is the inferred type of a whole column.
type ColumnType string

const (
	TypeNumber  ColumnType = "number"
	TypeText    ColumnType = "text"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeUnknown ColumnType = "unknown"
)

// ColumnTypeMap maps column name to inferred type.
type ColumnTypeMap map[string]ColumnType

// NumericColumns returns the columns typed as number, in the order given.
func (m ColumnTypeMap) NumericColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		if m[c] == TypeNumber {
			out = append(out, c)
		}
	}
	return out
}

// DetectColumnTypes classifies every named column from the records in ds,
// which may be a sample. Only non-missing cells are considered. A type wins
// when the fraction of cells matching it reaches opt.TypeThreshold; number
// is tried first, then boolean, then date, and text is the fallback.
func DetectColumnTypes(ds Dataset, columns []string, opt Options) ColumnTypeMap {
	thr := opt.typeThreshold()
	out := make(ColumnTypeMap, len(columns))
	for _, col := range columns {
		out[col] = detectColumn(ds.Records, col, thr, opt)
	}
	return out
}

func detectColumn(records []Record, col string, thr float64, opt Options) ColumnType {
	var present, numCnt, boolCnt, dateCnt int
	for _, r := range records {
		c := r[col]
		if c.IsMissing() {
			continue
		}
		present++
		switch c.kind {
		case KindNumber:
			numCnt++
		case KindBool:
			boolCnt++
		case KindText:
			if _, ok := parseNumeric(c.text, opt); ok {
				numCnt++
				continue
			}
			if _, ok := parseBoolLiteral(c.text); ok {
				boolCnt++
				continue
			}
			if _, ok := parseDate(c.text); ok {
				dateCnt++
			}
		}
	}
	if present == 0 {
		return TypeUnknown
	}
	meets := func(n int) bool { return float64(n)/float64(present) >= thr }
	switch {
	case meets(numCnt):
		return TypeNumber
	case meets(boolCnt):
		return TypeBoolean
	case meets(dateCnt):
		return TypeDate
	}
	return TypeText
}
