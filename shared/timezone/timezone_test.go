package timezone_test

import (
	"testing"
	"time"
	"venue/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		wantZone string
		wantErr  bool
	}{
		{name: "empty is utc", zone: "", wantZone: "UTC"},
		{name: "iana name", zone: "Asia/Jakarta", wantZone: "Asia/Jakarta"},
		{name: "unknown keeps previous", zone: "Mars/Olympus", wantZone: "Asia/Jakarta", wantErr: true},
	}

	t.Cleanup(func() { _ = timezone.Set("") })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := timezone.Set(tt.zone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantZone, timezone.Location().String())
		})
	}
}

func TestWallClockIsNaive(t *testing.T) {
	require.NoError(t, timezone.Set("Asia/Jakarta"))
	t.Cleanup(func() { _ = timezone.Set("") })

	wall := timezone.WallClock()
	local := timezone.Now()

	assert.Equal(t, time.UTC, wall.Location())
	assert.Equal(t, local.Hour(), wall.Hour())
	assert.Equal(t, local.Day(), wall.Day())

	today := timezone.Today()
	assert.Equal(t, local.Day(), today.Day())
	assert.Zero(t, today.Hour())
	assert.False(t, today.After(wall))
}

func TestFormat(t *testing.T) {
	require.NoError(t, timezone.Set("Asia/Jakarta"))
	t.Cleanup(func() { _ = timezone.Set("") })

	instant := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-02 03:00", timezone.Format(instant, "2006-01-02 15:04"))
}
