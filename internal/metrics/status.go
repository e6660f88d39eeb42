package metrics

import "sort"

// OutcomeBucket is the count of one outcome for one model.
type OutcomeBucket struct {
	Model   string
	Outcome string
	Count   int64
}

// FlattenOutcomes converts per-model stats into failure rows, sorted by
// descending count, then by model/outcome for stability. Successes and empty
// buckets are omitted.
func FlattenOutcomes(models []ModelStats) []OutcomeBucket {
	rows := make([]OutcomeBucket, 0)
	for _, m := range models {
		for outcome, count := range map[string]int64{
			OutcomeRateLimited: m.RateLimited,
			OutcomeNotFound:    m.NotFound,
			OutcomeOther:       m.Other,
		} {
			if count > 0 {
				rows = append(rows, OutcomeBucket{Model: m.Model, Outcome: outcome, Count: count})
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Model == rows[j].Model {
				return rows[i].Outcome < rows[j].Outcome
			}
			return rows[i].Model < rows[j].Model
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
