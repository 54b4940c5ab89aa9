package service

import "time"

const birthDateLayout = "2006-01-02"

// deriveAge computes calendar-accurate whole years elapsed between dob and
// now: the count increments on the birthday itself, not on a 365-day
// approximation.
func deriveAge(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// parseBirthDate parses a YYYY-MM-DD date string. The bool reports whether
// parsing succeeded; callers fall back to the caller-supplied age when it
// did not.
func parseBirthDate(raw string) (time.Time, bool) {
	t, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
