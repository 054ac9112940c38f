package utils

import (
	"math"
	"time"
)

// All calendar arithmetic runs in IST. A "day" is a calendar day in this
// zone regardless of where the request came from.
var IST = time.FixedZone("IST", 5*3600+1800)

const DateLayout = "2006-01-02"

// FormatDate renders t as a YYYY-MM-DD calendar day in IST.
func FormatDate(t time.Time) string {
	return t.In(IST).Format(DateLayout)
}

// TodayIST returns today's date string in IST.
func TodayIST() string {
	return FormatDate(time.Now())
}

// Yesterday returns the date string of the calendar day before date.
// Malformed input yields an empty string; callers treat that as "no
// previous day", which can never equal a stored last-study date.
func Yesterday(date string) string {
	t, err := time.ParseInLocation(DateLayout, date, IST)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// DaysRemaining counts whole days from now until due, rounding up, so a
// deadline later today is 0 and one overdue goes negative.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// WindowStart computes the trailing aggregation window: 7 days for
// weekly, one calendar month for monthly.
func WindowStart(window string, asOf time.Time) time.Time {
	if window == "monthly" {
		return asOf.AddDate(0, -1, 0)
	}
	return asOf.AddDate(0, 0, -7)
}
