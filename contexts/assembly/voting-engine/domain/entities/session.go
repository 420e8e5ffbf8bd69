package entities

import "time"

// MinimumSessionLength is the shortest window a session may be created with.
const MinimumSessionLength = time.Minute

type Session struct {
	SessionID string
	StartsAt  time.Time
	EndsAt    time.Time
	Version   int64
	CreatedAt time.Time
}

// NormalizeWindow enforces end > start by stretching short or inverted
// windows to exactly MinimumSessionLength.
func NormalizeWindow(startsAt time.Time, endsAt time.Time) (time.Time, time.Time) {
	startsAt = startsAt.UTC()
	endsAt = endsAt.UTC()
	if endsAt.Sub(startsAt) < MinimumSessionLength {
		endsAt = startsAt.Add(MinimumSessionLength)
	}
	return startsAt, endsAt
}

// IsOpen reports whether now falls inside [StartsAt, EndsAt].
func (s Session) IsOpen(now time.Time) bool {
	return !now.Before(s.StartsAt) && !now.After(s.EndsAt)
}

func (s Session) NotStarted(now time.Time) bool {
	return now.Before(s.StartsAt)
}

func (s Session) Ended(now time.Time) bool {
	return now.After(s.EndsAt)
}
