package core

import "time"

// GameRule is the recurring slot the club plays in: a fixed weekday and
// kickoff time. The default rule is Tuesday at 21:00 local time.
type GameRule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// DefaultGameRule matches the club's long-standing Tuesday night slot.
var DefaultGameRule = GameRule{Weekday: time.Tuesday, Hour: 21, Minute: 0}

// Next returns the next occurrence of the rule's weekday at kickoff,
// relative to from. When from falls on or before the target weekday within
// the current week, the occurrence is in the same week (possibly today);
// otherwise it rolls into the next week. The time of day is forced to
// kickoff with seconds and finer precision zeroed.
func (r GameRule) Next(from time.Time) time.Time {
	day := from.Weekday()
	var diff int
	if day <= r.Weekday {
		diff = int(r.Weekday - day)
	} else {
		diff = 7 - int(day) + int(r.Weekday)
	}
	d := from.AddDate(0, 0, diff)
	return time.Date(d.Year(), d.Month(), d.Day(), r.Hour, r.Minute, 0, 0, from.Location())
}

// Following returns the occurrence one week after Next(from).
func (r GameRule) Following(from time.Time) time.Time {
	return r.Next(r.Next(from).AddDate(0, 0, 7))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// DayKey renders the calendar day of an occurrence as "YYYY-MM-DD". The
// games table carries a unique index on this key, which is what makes
// occurrence creation idempotent under concurrent schedulers.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
