package services

import (
	"fmt"
	"testing"
	"time"

	"streetLearnAPI/internal/types/deadline"
	"streetLearnAPI/utils"

	"github.com/google/uuid"
)

func TestReminderTitle(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, "Deadline due today!"},
		{1, "Deadline due tomorrow"},
		{2, "Deadline due in 2 days"},
		{7, "Deadline due in 7 days"},
	}

	for _, c := range cases {
		if got := ReminderTitle(c.days); got != c.want {
			t.Errorf("ReminderTitle(%d) = %q, want %q", c.days, got, c.want)
		}
	}
}

func TestBuildReminderTagPinsDeadline(t *testing.T) {
	d := deadline.Deadline{ID: uuid.New(), Title: "Physics assignment"}

	push := BuildReminder(d, 3)

	wantTag := fmt.Sprintf("deadline_%s", d.ID)
	if push.Tag != wantTag {
		t.Errorf("Tag = %q, want %q", push.Tag, wantTag)
	}
	if push.Body != "Physics assignment" {
		t.Errorf("Body = %q, want the deadline title", push.Body)
	}
	if push.Data["deadline_id"] != d.ID.String() {
		t.Errorf("Data missing deadline_id")
	}
}

func TestBuildReminderSameTagEveryDay(t *testing.T) {
	d := deadline.Deadline{ID: uuid.New(), Title: "Essay"}

	day1 := BuildReminder(d, 5)
	day2 := BuildReminder(d, 4)

	if day1.Tag != day2.Tag {
		t.Errorf("reminder tags differ across days: %q vs %q", day1.Tag, day2.Tag)
	}
}

func TestNextScanTimeBeforeNineAM(t *testing.T) {
	now := time.Date(2026, 8, 28, 7, 30, 0, 0, utils.IST)

	next := nextScanTime(now)

	want := time.Date(2026, 8, 28, 9, 0, 0, 0, utils.IST)
	if !next.Equal(want) {
		t.Errorf("nextScanTime = %v, want %v", next, want)
	}
}

func TestNextScanTimeAfterNineAM(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, utils.IST)

	next := nextScanTime(now)

	want := time.Date(2026, 8, 29, 9, 0, 0, 0, utils.IST)
	if !next.Equal(want) {
		t.Errorf("nextScanTime = %v, want %v", next, want)
	}
}

func TestNextScanTimeExactlyNineAM(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, utils.IST)

	next := nextScanTime(now)

	if !next.After(now) {
		t.Errorf("nextScanTime at 09:00 must be tomorrow, got %v", next)
	}
}
