package schema

// ErrorSummary counts the occurrences of one error kind in one column.
type ErrorSummary struct {
	Error      ErrorKind `json:"error"`
	Column     string    `json:"column"`
	Occurrence int       `json:"occurrence"`
}

// SummarizeErrors groups errs by kind and column, in order of first occurrence.
func SummarizeErrors(errs []RowError) []ErrorSummary {
	index := make(map[string]int)
	out := make([]ErrorSummary, 0)

	for _, e := range errs {
		key := string(e.Kind) + "\x00" + e.Column
		if i, ok := index[key]; ok {
			out[i].Occurrence++
			continue
		}
		index[key] = len(out)
		out = append(out, ErrorSummary{Error: e.Kind, Column: e.Column, Occurrence: 1})
	}
	return out
}
