package ledger

// CategoryCount is a per-category tally over one day's records: the subset
// aimed at a specific target and the global total. Derived on demand, never
// stored.
type CategoryCount struct {
	Category    int
	TargetCount int
	GlobalCount int
}

// CountsByCategory groups records by category and counts, per group, the
// records targeting targetID and the group's total size. Groups appear in
// order of first occurrence, matching the records' insertion order.
func CountsByCategory[R Record](records []R, targetID int) []CategoryCount {
	index := make(map[int]int)

	var counts []CategoryCount

	for _, record := range records {
		i, seen := index[record.Category()]

		if !seen {
			i = len(counts)
			index[record.Category()] = i
			counts = append(counts, CategoryCount{Category: record.Category()})
		}

		counts[i].GlobalCount++

		if record.Target() == targetID {
			counts[i].TargetCount++
		}
	}

	return counts
}
