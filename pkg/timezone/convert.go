// Package timezone converts stored instants into display strings for a named zone.
package timezone

import (
	"fmt"
	"sync"
	"time"
)

// Display layouts used by the booking page and notification mails.
const (
	LayoutLong = "January 2, 2006 3:04 PM"
	LayoutDate = "Jan 2, 2006"
	LayoutTime = "3:04 PM"
)

var (
	mu    sync.RWMutex
	zones = map[string]*time.Location{}
)

// Load returns the location for an IANA zone name, caching the result.
func Load(name string) (*time.Location, error) {
	mu.RLock()
	loc, ok := zones[name]
	mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone: unknown zone %q: %w", name, err)
	}

	mu.Lock()
	zones[name] = loc
	mu.Unlock()

	return loc, nil
}

// Convert formats instant in the target zone using layout.
func Convert(instant time.Time, zone string, layout string) (string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(layout), nil
}
