package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatusTerminal(t *testing.T) {
	assert.True(t, StatusRejectedFinal.Terminal())
	assert.True(t, StatusClosed.Terminal())
	for _, s := range []TicketStatus{
		StatusOpen, StatusInProgress, StatusRejectedPendingL3,
		StatusEscalated, StatusCompleted, StatusReopenedInProgress,
	} {
		assert.False(t, s.Terminal(), "status %s must not be terminal", s)
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	all := []TicketStatus{
		StatusOpen, StatusInProgress, StatusRejectedPendingL3, StatusRejectedFinal,
		StatusEscalated, StatusCompleted, StatusClosed, StatusReopenedInProgress,
	}
	for _, from := range []TicketStatus{StatusRejectedFinal, StatusClosed} {
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s must be unreachable", from, to)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusRejectedPendingL3, true},
		{StatusOpen, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusEscalated, true},
		{StatusInProgress, StatusClosed, false},
		{StatusRejectedPendingL3, StatusInProgress, true},
		{StatusRejectedPendingL3, StatusOpen, true},
		{StatusEscalated, StatusOpen, true},
		{StatusEscalated, StatusInProgress, false},
		{StatusCompleted, StatusClosed, true},
		{StatusCompleted, StatusReopenedInProgress, true},
		{StatusReopenedInProgress, StatusInProgress, true},
		{StatusReopenedInProgress, StatusCompleted, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRejectable(t *testing.T) {
	assert.True(t, StatusOpen.Rejectable())
	assert.True(t, StatusInProgress.Rejectable())
	assert.True(t, StatusEscalated.Rejectable())
	assert.True(t, StatusReopenedInProgress.Rejectable())
	assert.False(t, StatusCompleted.Rejectable())
	assert.False(t, StatusClosed.Rejectable())
	assert.False(t, StatusRejectedFinal.Rejectable())
}

func TestValidWalk(t *testing.T) {
	walk := func(statuses ...TicketStatus) []StatusHistoryEntry {
		entries := make([]StatusHistoryEntry, 0, len(statuses))
		var prev *TicketStatus
		for _, s := range statuses {
			entry := StatusHistoryEntry{NewStatus: s}
			if prev != nil {
				old := *prev
				entry.OldStatus = &old
			}
			entries = append(entries, entry)
			current := s
			prev = &current
		}
		return entries
	}

	require.True(t, ValidWalk(nil))
	assert.True(t, ValidWalk(walk(StatusOpen, StatusInProgress, StatusCompleted, StatusClosed)))
	assert.True(t, ValidWalk(walk(StatusOpen, StatusRejectedPendingL3, StatusInProgress, StatusEscalated, StatusOpen)))
	assert.True(t, ValidWalk(walk(StatusOpen, StatusInProgress, StatusCompleted, StatusReopenedInProgress, StatusInProgress)))

	// must start at open
	assert.False(t, ValidWalk(walk(StatusInProgress, StatusCompleted)))
	// skipped edge
	assert.False(t, ValidWalk(walk(StatusOpen, StatusCompleted)))
	// nothing leaves a terminal state
	assert.False(t, ValidWalk(walk(StatusOpen, StatusInProgress, StatusRejectedFinal, StatusInProgress)))

	// old_status must chain to the previous entry
	entries := walk(StatusOpen, StatusInProgress)
	wrong := StatusEscalated
	entries[1].OldStatus = &wrong
	assert.False(t, ValidWalk(entries))
}
