package contentservice

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// StatusAt derives the publication status of a piece of content from its
// stored publication instant. Status is never persisted; it is recomputed on
// every read so that future-dated content flips to published on its own.
func StatusAt(publishedAt *time.Time, now time.Time) Status {
	if publishedAt == nil || now.Before(*publishedAt) {
		return StatusPending
	}
	return StatusPublished
}

// ToLocal converts a stored UTC instant into the named zone for display.
// Stored instants are never mutated; conversion happens per call with an
// explicit zone name, never via ambient process state.
func ToLocal(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// ToUTC interprets the wall-clock fields of t in the named zone and returns
// the corresponding UTC instant. Used when an editing interface submits a
// local time for a site.
func ToUTC(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC(), nil
}
