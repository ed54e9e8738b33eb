package knowledge

// Run searches records for every query and returns the deduplicated results.
//
// All queries are classified before any record is scanned, so a malformed
// regex aborts the run without partial results. Results sharing an
// (ID, name) pair collapse into one: the last match wins, but the position of
// the first one is kept.
func Run(records []*Object, queries []string, opts Options) ([]ResultRecord, error) {
	classified, err := ClassifyQueries(queries, opts.Regex)
	if err != nil {
		return nil, err
	}
	return RunClassified(records, classified, opts.Scope), nil
}

// RunClassified searches records with already classified queries
func RunClassified(records []*Object, queries []Query, scope FieldScope) []ResultRecord {
	if scope == "" {
		scope = ScopeAll
	}

	var results []ResultRecord
	position := make(map[resultKey]int)

	for _, q := range queries {
		for _, rec := range records {
			if !q.Matches(rec, scope) {
				continue
			}
			r := NewResultRecord(rec)
			k := r.key()
			if i, ok := position[k]; ok {
				results[i] = r
				continue
			}
			position[k] = len(results)
			results = append(results, r)
		}
	}

	return results
}

// IsDetailView reports whether a search should be shown as a single-record
// detail view: one exact ID query with exactly one result.
func IsDetailView(queries []Query, results []ResultRecord) bool {
	return len(queries) == 1 && queries[0].Mode == ModeExactID && len(results) == 1
}
