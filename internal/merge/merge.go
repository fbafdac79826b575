// Package merge implements the read-through union of the two conversation
// schema generations. It is pure so the precedence and ordering rules can
// be tested without a database.
package merge

import "sort"

// ByID unions primary and secondary records keyed by id. Primary records
// win on id collisions. The result is sorted by creation time descending;
// ties keep primary records first.
func ByID[T any](primary, secondary []T, id func(T) string, createdAt func(T) int64) []T {
	seen := make(map[string]struct{}, len(primary))
	merged := make([]T, 0, len(primary)+len(secondary))

	for _, rec := range primary {
		seen[id(rec)] = struct{}{}
		merged = append(merged, rec)
	}
	for _, rec := range secondary {
		if _, dup := seen[id(rec)]; dup {
			continue
		}
		seen[id(rec)] = struct{}{}
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return createdAt(merged[i]) > createdAt(merged[j])
	})

	return merged
}

// FirstNonEmpty returns primary when it has any records, otherwise
// secondary. This is the message-list read path: once a conversation has
// any current-generation messages the first-generation ones are ignored
// entirely rather than merged.
func FirstNonEmpty[T any](primary, secondary []T) []T {
	if len(primary) > 0 {
		return primary
	}
	return secondary
}
