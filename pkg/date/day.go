package date

import "time"

// SlotDuration is the calendar grid granularity for drag created blocks
const SlotDuration = 15 * time.Minute

// DayKeyFormat is the format used for keying records by calendar day
const DayKeyFormat = "2006-01-02"

// StartOfDay normalizes a time to midnight of its calendar day
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DayOf returns the UTC midnight marker for the calendar day t falls on
// in its own location. Day keyed records must compare equal no matter
// which zone the timestamp was produced in.
func DayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayKey formats a time as its calendar day key
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// SameDay reports whether two times fall on the same calendar day
func SameDay(t1 time.Time, t2 time.Time) bool {
	return StartOfDay(t1).Equal(StartOfDay(t2))
}

// SnapToSlot snaps a time to its nearest calendar slot boundary
func SnapToSlot(t time.Time) time.Time {
	return t.Round(SlotDuration)
}

// SlotStart snaps a time down to the slot containing it
func SlotStart(t time.Time) time.Time {
	return t.Truncate(SlotDuration)
}

// SlotEnd returns the exclusive end of the slot containing t.
// A drag released inside a slot covers that whole slot.
func SlotEnd(t time.Time) time.Time {
	start := SlotStart(t)
	if start.Equal(t) {
		return t
	}
	return start.Add(SlotDuration)
}
