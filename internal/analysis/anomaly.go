package analysis

// Anomaly is a value far from its column mean. Index is the row position in
// the dataset the detection ran on; Deviation is the signed z-score.
type Anomaly struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	Deviation float64 `json:"deviation"`
}

// FindAnomalies flags usable values of column whose z-score reaches
// opt.AnomalyThreshold in the configured direction. Results are ordered by
// row index. A column without spread (stddev 0) or without usable values has
// no anomalies.
func FindAnomalies(ds Dataset, column string, opt Options) ([]Anomaly, error) {
	if err := ds.column("anomalies", column); err != nil {
		return nil, err
	}
	sum, err := summarize(numericValues(ds.Records, column, opt))
	if err != nil {
		return nil, err
	}
	if sum == nil || sum.StdDev == 0 {
		return []Anomaly{}, nil
	}
	thr := opt.anomalyThreshold()
	dir := opt.direction()
	out := []Anomaly{}
	for i, r := range ds.Records {
		v, ok := r[column].Float(opt)
		if !ok {
			continue
		}
		// halved so v-mean stays finite across the whole float64 range
		z := (v/2 - sum.Mean/2) / (sum.StdDev / 2)
		if exceeds(z, thr, dir) {
			out = append(out, Anomaly{Index: i, Value: v, Deviation: z})
		}
	}
	return out, nil
}

func exceeds(z, thr float64, dir Direction) bool {
	switch dir {
	case Upper:
		return z >= thr
	case Lower:
		return z <= -thr
	}
	return z >= thr || z <= -thr
}
