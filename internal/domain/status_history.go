package domain

import "time"

// StatusHistoryEntry is an append-only audit record of one status change.
// OldStatus is nil for the creation event. Entries are never updated or
// deleted once written.
type StatusHistoryEntry struct {
	ID        int64
	TicketID  int64
	OldStatus *TicketStatus
	NewStatus TicketStatus
	ChangedBy int64
	Notes     string
	ChangedAt time.Time
}

// ValidWalk reports whether the entries, in order, form a legal path through
// the transition graph starting from the creation event.
func ValidWalk(entries []StatusHistoryEntry) bool {
	if len(entries) == 0 {
		return true
	}
	if entries[0].OldStatus != nil || entries[0].NewStatus != StatusOpen {
		return false
	}
	current := entries[0].NewStatus
	for _, entry := range entries[1:] {
		if entry.OldStatus == nil || *entry.OldStatus != current {
			return false
		}
		if !CanTransition(current, entry.NewStatus) {
			return false
		}
		current = entry.NewStatus
	}
	return true
}
