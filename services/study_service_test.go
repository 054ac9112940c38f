package services

import (
	"testing"

	"streetLearnAPI/internal/apperr"
)

func TestMergeHoursSums(t *testing.T) {
	total, err := MergeHours(2.5, 3)
	if err != nil {
		t.Fatalf("MergeHours failed: %v", err)
	}
	if total != 5.5 {
		t.Errorf("MergeHours = %v, want 5.5", total)
	}
}

func TestMergeHoursClampsAtDailyCap(t *testing.T) {
	total, err := MergeHours(10, 20)
	if err != nil {
		t.Fatalf("MergeHours failed: %v", err)
	}
	if total != 24 {
		t.Errorf("MergeHours = %v, want clamp to 24", total)
	}
}

func TestMergeHoursRejectsWhenDayIsFull(t *testing.T) {
	_, err := MergeHours(24, 0.5)
	if err == nil {
		t.Fatal("MergeHours should reject a log on an already-full day")
	}
	if !apperr.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestMergeHoursAllowsExactCap(t *testing.T) {
	total, err := MergeHours(20, 4)
	if err != nil {
		t.Fatalf("MergeHours at exactly 24 should pass: %v", err)
	}
	if total != 24 {
		t.Errorf("MergeHours = %v, want 24", total)
	}
}

func TestMergeHoursRejectsNonPositive(t *testing.T) {
	if _, err := MergeHours(2, 0); err == nil {
		t.Error("MergeHours should reject zero hours")
	}
	if _, err := MergeHours(2, -1); err == nil {
		t.Error("MergeHours should reject negative hours")
	}
}

func TestMergeTopicsAppends(t *testing.T) {
	got := MergeTopics("algebra", "graphs")
	if got != "algebra, graphs" {
		t.Errorf("MergeTopics = %q, want %q", got, "algebra, graphs")
	}
}

func TestMergeTopicsSkipsDuplicate(t *testing.T) {
	got := MergeTopics("algebra, graphs", "graphs")
	if got != "algebra, graphs" {
		t.Errorf("MergeTopics = %q, want unchanged", got)
	}
}

func TestNextStreakExtendsFromYesterday(t *testing.T) {
	yesterday := "2026-08-27"
	if got := NextStreak(4, &yesterday, "2026-08-28"); got != 5 {
		t.Errorf("NextStreak = %d, want 5", got)
	}
}

func TestNextStreakResetsAfterGap(t *testing.T) {
	twoDaysAgo := "2026-08-26"
	if got := NextStreak(9, &twoDaysAgo, "2026-08-28"); got != 1 {
		t.Errorf("NextStreak after a gap = %d, want 1", got)
	}
}

func TestNextStreakFirstEverLog(t *testing.T) {
	if got := NextStreak(0, nil, "2026-08-28"); got != 1 {
		t.Errorf("NextStreak with no history = %d, want 1", got)
	}
}

func TestNextStreakAcrossMonthBoundary(t *testing.T) {
	lastOfMonth := "2026-07-31"
	if got := NextStreak(2, &lastOfMonth, "2026-08-01"); got != 3 {
		t.Errorf("NextStreak across month boundary = %d, want 3", got)
	}
}

func TestBuildCalendarMonthShape(t *testing.T) {
	resp := BuildCalendar(2026, 8, nil, "2026-08-28")

	if resp.Year != 2026 || resp.Month != 8 {
		t.Errorf("calendar header = %d-%d, want 2026-8", resp.Year, resp.Month)
	}
	if len(resp.Days) != 31 {
		t.Fatalf("August should have 31 days, got %d", len(resp.Days))
	}
	if resp.Days[0].Date != "2026-08-01" {
		t.Errorf("first day = %s, want 2026-08-01", resp.Days[0].Date)
	}
	if resp.Days[30].Date != "2026-08-31" {
		t.Errorf("last day = %s, want 2026-08-31", resp.Days[30].Date)
	}
}

func TestBuildCalendarMarksStudiedAndToday(t *testing.T) {
	studied := map[string]bool{"2026-08-24": true, "2026-08-26": true}
	resp := BuildCalendar(2026, 8, studied, "2026-08-28")

	for _, day := range resp.Days {
		if day.StudiedToday != studied[day.Date] {
			t.Errorf("day %s: studied = %v, want %v", day.Date, day.StudiedToday, studied[day.Date])
		}
		if day.IsToday != (day.Date == "2026-08-28") {
			t.Errorf("day %s: is_today = %v", day.Date, day.IsToday)
		}
	}
}

func TestBuildCalendarLeapFebruary(t *testing.T) {
	resp := BuildCalendar(2024, 2, nil, "2026-08-28")
	if len(resp.Days) != 29 {
		t.Errorf("February 2024 should have 29 days, got %d", len(resp.Days))
	}
}

// The Mon-Tue-Wed, skip Thu, Fri pattern should produce streaks
// 1, 2, 3, then a reset to 1.
func TestStreakSequenceWithGap(t *testing.T) {
	days := []string{"2026-08-24", "2026-08-25", "2026-08-26", "2026-08-28"}
	want := []int{1, 2, 3, 1}

	streak := 0
	var last *string
	for i, day := range days {
		streak = NextStreak(streak, last, day)
		if streak != want[i] {
			t.Fatalf("day %s: streak = %d, want %d", day, streak, want[i])
		}
		d := day
		last = &d
	}
}
