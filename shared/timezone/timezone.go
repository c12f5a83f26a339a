package timezone

import (
	"sync"
	"time"
	"venue/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	mu       sync.RWMutex
	location = time.UTC
	loadOnce sync.Once
)

// Set switches the venue time zone. An empty name means UTC.
func Set(name string) error {
	loc, err := load(name)
	if err != nil {
		return err
	}

	loadOnce.Do(func() {})
	store(loc)

	return nil
}

func load(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown time zone %q", name)
	}

	return loc, nil
}

func store(loc *time.Location) {
	mu.Lock()
	location = loc
	mu.Unlock()
}

// Location is the venue time zone, read from APP_TIMEZONE on first use.
func Location() *time.Location {
	loadOnce.Do(func() {
		name := config.Get().App.Timezone

		loc, err := load(name)
		if err != nil {
			log.Error().Err(err).Str("timezone", name).Msg("falling back to UTC")

			loc = time.UTC
		}

		store(loc)
	})

	mu.RLock()
	defer mu.RUnlock()

	return location
}

func Now() time.Time {
	return time.Now().In(Location())
}

// WallClock is the venue's current wall time with the zone stripped, so it
// compares directly against naive booking dates and times.
func WallClock() time.Time {
	now := Now()

	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
}

// Today is midnight of the venue's current day, zone stripped.
func Today() time.Time {
	now := Now()

	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
