package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusInProgress, StatusProcessed, true},
		{StatusProcessed, StatusArchived, true},
		{StatusNew, StatusProcessed, false},
		{StatusNew, StatusArchived, false},
		{StatusProcessed, StatusNew, false},
		{StatusArchived, StatusNew, false},
		{StatusNew, StatusNew, false},
		{StatusNew, Status("REJECTED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("in_progress")
	assert.Error(t, err)
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, TypeInternal.Valid())
	assert.False(t, MailType("FAX").Valid())
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("").Valid())
	assert.True(t, StatusArchived.IsTerminal())
	assert.False(t, StatusProcessed.IsTerminal())
}
