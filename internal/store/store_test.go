package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncRetryAt(t *testing.T) {
	failed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 8 * time.Minute},
		{7, time.Hour},
		{MaxSyncAttempts, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, failed.Add(tt.want), SyncRetryAt(failed, tt.attempts), "attempts=%d", tt.attempts)
	}
}
