package sync

import "strings"

// warningTypes are the result types that make an apply risky: the remote
// update procedure silently skips these rows, so the user must confirm
// before proceeding.
var warningTypes = map[string]struct{}{
	"empty":  {},
	"error":  {},
	"orphan": {},
}

// Aggregate groups comparison rows by their (type, description) pair and
// counts each group. Grouping is by the pair, not the type alone, because the
// same type can carry multiple distinct descriptions. Output order is the
// first-occurrence order of each pair; the input is already sorted
// server-side and no client re-sort is performed.
func Aggregate(rows []ComparisonRow) []ResultSummary {
	if len(rows) == 0 {
		return []ResultSummary{}
	}

	index := make(map[[2]string]int, len(rows))
	summaries := make([]ResultSummary, 0)

	for _, row := range rows {
		key := [2]string{row.ResultType, row.Description}
		if i, ok := index[key]; ok {
			summaries[i].Count++
			continue
		}
		index[key] = len(summaries)
		summaries = append(summaries, ResultSummary{
			ResultType:  row.ResultType,
			Description: row.Description,
			Count:       1,
		})
	}

	return summaries
}

// HasWarningTypes reports whether any summary carries a warning-worthy type.
// The check is case-insensitive; the taxonomy is otherwise open-ended.
func HasWarningTypes(summaries []ResultSummary) bool {
	for _, s := range summaries {
		if _, ok := warningTypes[strings.ToLower(s.ResultType)]; ok {
			return true
		}
	}
	return false
}
