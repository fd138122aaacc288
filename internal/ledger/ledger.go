package ledger

// Caps for every bounded list persisted in a snapshot.
const (
	HistoryLimit              = 200
	ProcessedCompletionsLimit = 1000
	ProcessedProgressLimit    = 1000
	ProcessedMilestoneLimit   = 1000
	ProcessedJournalLimit     = 1000
	TodoProgressEventsLimit   = 200
	CoachSeenEventsLimit      = 500
	CoachMessagesLimit        = 200
	KpiHistoryLimit           = 30
)

// CapTail keeps the most recently appended limit items in their original
// order. A non-positive limit clears the list. The result never aliases items.
func CapTail[T any](items []T, limit int) []T {
	if limit <= 0 {
		return []T{}
	}
	start := 0
	if len(items) > limit {
		start = len(items) - limit
	}
	out := make([]T, len(items)-start)
	copy(out, items[start:])
	return out
}

func IsNew(entries []string, id string) bool {
	for _, e := range entries {
		if e == id {
			return false
		}
	}
	return true
}

// Record appends id and caps the ledger. Callers check IsNew first; Record
// does not dedupe on its own.
func Record(entries []string, id string, limit int) []string {
	next := make([]string, 0, len(entries)+1)
	next = append(next, entries...)
	next = append(next, id)
	return CapTail(next, limit)
}
