package utils

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestYesterday(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2026-08-28", "2026-08-27"},
		{"2026-03-01", "2026-02-28"},
		{"2024-03-01", "2024-02-29"},
		{"2026-01-01", "2025-12-31"},
	}

	for _, c := range cases {
		if got := Yesterday(c.date); got != c.want {
			t.Errorf("Yesterday(%s) = %s, want %s", c.date, got, c.want)
		}
	}
}

func TestYesterdayMalformed(t *testing.T) {
	if got := Yesterday("not-a-date"); got != "" {
		t.Errorf("Yesterday on malformed input = %q, want empty", got)
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, IST)

	cases := []struct {
		due  time.Time
		want int
	}{
		{now.Add(2 * time.Hour), 1},
		{now, 0},
		{now.Add(-1 * time.Hour), 0},
		{now.Add(25 * time.Hour), 2},
		{now.AddDate(0, 0, 7), 7},
		{now.Add(-30 * time.Hour), -1},
	}

	for _, c := range cases {
		if got := DaysRemaining(c.due, now); got != c.want {
			t.Errorf("DaysRemaining(%v) = %d, want %d", c.due, got, c.want)
		}
	}
}

func TestFormatDateUsesIST(t *testing.T) {
	// 22:00 UTC is already the next day in IST.
	utc := time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC)
	if got := FormatDate(utc); got != "2026-08-29" {
		t.Errorf("FormatDate(%v) = %s, want 2026-08-29", utc, got)
	}
}

func TestWindowStart(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 12, 0, 0, 0, IST)

	weekly := WindowStart("weekly", asOf)
	if FormatDate(weekly) != "2026-08-21" {
		t.Errorf("weekly window start = %s, want 2026-08-21", FormatDate(weekly))
	}

	monthly := WindowStart("monthly", asOf)
	if FormatDate(monthly) != "2026-07-28" {
		t.Errorf("monthly window start = %s, want 2026-07-28", FormatDate(monthly))
	}
}

func TestTruncateBody(t *testing.T) {
	if got := TruncateBody("short", 120); got != "short" {
		t.Errorf("TruncateBody(short) = %q", got)
	}

	long := ""
	for i := 0; i < 50; i++ {
		long += "abcde"
	}
	got := TruncateBody(long, 120)
	if len(got) != 120 {
		t.Errorf("TruncateBody length = %d, want 120", len(got))
	}
	if got[117:] != "..." {
		t.Errorf("TruncateBody should end with ellipsis, got %q", got[117:])
	}
}

func TestTruncateBodyKeepsRunesIntact(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "прив" // 2 bytes per rune
	}
	got := TruncateBody(long, 120)

	if !utf8.ValidString(got) {
		t.Fatalf("TruncateBody produced invalid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 120 {
		t.Errorf("TruncateBody rune count = %d, want 120", utf8.RuneCountInString(got))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("TruncateBody should end with ellipsis, got %q", got[len(got)-3:])
	}
}
