package domain

import "time"

const monthLen = len("2006-01")

// FormatDate truncates an ISO-like date string to its year and month.
func FormatDate(s string) string {
	if len(s) <= monthLen {
		return s
	}
	return s[:monthLen]
}

// FormatTime formats t the same way FormatDate formats its string form.
func FormatTime(t time.Time) string {
	return FormatDate(t.UTC().Format("2006-01-02T15:04:05"))
}
