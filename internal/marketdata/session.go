package marketdata

import (
	"time"
)

// The session is considered closed 15 minutes after the 16:00 NY cash
// close, so provider bars for today are only trusted after the buffer.
const (
	closeHour   = 16
	closeMinute = 15
)

// Clock supplies the reference instant. The production clock is the
// system clock; tests substitute a fixed one.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// FixedClock returns a clock frozen at t.
type FixedClock struct {
	T time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time { return c.T }

// Session answers calendar questions about the US equity session in
// America/New_York civil time. Weekends and holidays are not handled
// here; trimming relies on data absence instead.
type Session struct {
	clock Clock
	loc   *time.Location
}

// NewSession creates a session oracle on the system clock.
func NewSession() *Session {
	return NewSessionWithClock(systemClock{})
}

// NewSessionWithClock creates a session oracle on a supplied clock.
func NewSessionWithClock(clock Clock) *Session {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// No tzdata available; EST without DST is the closest fallback.
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &Session{clock: clock, loc: loc}
}

// NowNY returns the current instant in New York.
func (s *Session) NowNY() time.Time {
	return s.clock.Now().In(s.loc)
}

// TodayNY returns today's calendar date in New York, at midnight UTC so
// it compares directly against provider bar dates.
func (s *Session) TodayNY() time.Time {
	now := s.NowNY()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// MarketClosedForToday reports whether the NY time has passed the
// closing buffer, i.e. whether today's bar can be considered final.
func (s *Session) MarketClosedForToday() bool {
	now := s.NowNY()
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= closeHour*60+closeMinute
}

// IsToday reports whether a bar's civil date equals today's NY date.
// Bar dates are stored as civil dates at midnight UTC.
func (s *Session) IsToday(barDate time.Time) bool {
	today := s.TodayNY()
	return barDate.Year() == today.Year() &&
		barDate.Month() == today.Month() &&
		barDate.Day() == today.Day()
}

// CivilDate normalizes an instant to its NY calendar date at midnight
// UTC, the canonical bar-date representation.
func (s *Session) CivilDate(t time.Time) time.Time {
	ny := t.In(s.loc)
	return time.Date(ny.Year(), ny.Month(), ny.Day(), 0, 0, 0, 0, time.UTC)
}
