package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveSince(t *testing.T) {
	tests := []struct {
		name     string
		event    SyncEvent
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "explicit since date",
			event:    SyncEvent{Since: "2026-06-01"},
			expected: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "invalid since date",
			event:   SyncEvent{Since: "01/06/2026"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSince(tt.event)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveSinceDefaultWindow(t *testing.T) {
	got, err := resolveSince(SyncEvent{})
	assert.NoError(t, err)

	expected := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -defaultSinceDays)
	assert.Equal(t, expected, got)
}

func TestBuildFailureMessage(t *testing.T) {
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	msg := buildFailureMessage("prod", since, 93*time.Second, errors.New("failed to fetch page 4: connection reset"))

	assert.Contains(t, msg, "environment prod")
	assert.Contains(t, msg, "Requested since: 2026-05-01")
	assert.Contains(t, msg, "Elapsed: 1m33s")
	assert.Contains(t, msg, "failed to fetch page 4")
	assert.Contains(t, msg, "resume from the last synced page")
}
