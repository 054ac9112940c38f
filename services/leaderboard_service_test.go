package services

import (
	"testing"

	"streetLearnAPI/internal/types/leaderboard"

	"github.com/google/uuid"
)

func TestRankEntriesStreakDominatesHours(t *testing.T) {
	entries := []leaderboard.Entry{
		{UserID: uuid.New(), Role: "Orion", Streak: 2, TotalHours: 40},
		{UserID: uuid.New(), Role: "Lyra", Streak: 5, TotalHours: 3},
	}

	ranked := RankEntries(entries)

	if ranked[0].Role != "Lyra" || ranked[0].Rank != 1 {
		t.Errorf("rank 1 = %s, want Lyra (higher streak beats more hours)", ranked[0].Role)
	}
	if ranked[1].Role != "Orion" || ranked[1].Rank != 2 {
		t.Errorf("rank 2 = %s, want Orion", ranked[1].Role)
	}
}

func TestRankEntriesHoursBreakStreakTies(t *testing.T) {
	entries := []leaderboard.Entry{
		{Role: "Vega", Streak: 3, TotalHours: 2},
		{Role: "Atlas", Streak: 3, TotalHours: 6},
	}

	ranked := RankEntries(entries)

	if ranked[0].Role != "Atlas" {
		t.Errorf("rank 1 = %s, want Atlas", ranked[0].Role)
	}
}

func TestRankEntriesStableOnFullTie(t *testing.T) {
	entries := []leaderboard.Entry{
		{Role: "Aquila", Streak: 3, TotalHours: 4},
		{Role: "Nova", Streak: 3, TotalHours: 4},
	}

	ranked := RankEntries(entries)

	if ranked[0].Role != "Aquila" || ranked[1].Role != "Nova" {
		t.Errorf("full tie reordered entries: %s, %s", ranked[0].Role, ranked[1].Role)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestRankEntriesRoundsHours(t *testing.T) {
	entries := []leaderboard.Entry{
		{Role: "Phoenix", Streak: 1, TotalHours: 1.0 + 2.5 + 2.45},
	}

	ranked := RankEntries(entries)

	if ranked[0].TotalHours != 6.0 {
		t.Errorf("TotalHours = %v, want 6.0", ranked[0].TotalHours)
	}
}

func TestRankEntriesKeepsDegradedRows(t *testing.T) {
	entries := []leaderboard.Entry{
		{Role: "Orion", Streak: 4, TotalHours: 10},
		{Role: "Lyra", Streak: 0, Degraded: true},
	}

	ranked := RankEntries(entries)

	if len(ranked) != 2 {
		t.Fatalf("degraded row dropped, got %d entries", len(ranked))
	}
	if !ranked[1].Degraded || ranked[1].TotalHours != 0 {
		t.Errorf("degraded row = %+v, want Degraded with zero hours", ranked[1])
	}
}

func TestRoundHours(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{6.04, 6.0},
		{6.05, 6.1},
		{0, 0},
		{23.999, 24.0},
	}

	for _, c := range cases {
		if got := RoundHours(c.in); got != c.want {
			t.Errorf("RoundHours(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
