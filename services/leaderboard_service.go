package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"streetLearnAPI/internal/types/leaderboard"
	"streetLearnAPI/internal/types/user"
	"streetLearnAPI/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardService struct {
	db    *pgxpool.Pool
	users *UserService
}

func NewLeaderboardService(db *pgxpool.Pool, users *UserService) *LeaderboardService {
	return &LeaderboardService{db: db, users: users}
}

// ComputeLeaderboard aggregates every member over the trailing window.
// A member whose hours query fails still gets a row, marked degraded
// with zero hours, so one bad read never hides a member from the board.
func (s *LeaderboardService) ComputeLeaderboard(ctx context.Context, window leaderboard.Window) (*leaderboard.Leaderboard, error) {
	if window != leaderboard.WindowWeekly && window != leaderboard.WindowMonthly {
		window = leaderboard.WindowWeekly
	}

	members, err := s.users.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for leaderboard: %w", err)
	}

	asOf := time.Now().In(utils.IST)
	start := utils.FormatDate(utils.WindowStart(string(window), asOf))

	entries := make([]leaderboard.Entry, 0, len(members))
	for _, m := range members {
		entry := leaderboard.Entry{UserID: m.ID, Role: m.Role, Streak: m.Streak}

		hours, err := s.windowHours(ctx, m, start)
		if err != nil {
			log.Printf("LeaderboardService: degraded row for %s (%s): %v", m.Role, m.ID, err)
			entry.Degraded = true
		} else {
			entry.TotalHours = hours
		}
		entries = append(entries, entry)
	}

	return &leaderboard.Leaderboard{
		Window:  window,
		AsOf:    asOf,
		Entries: RankEntries(entries),
	}, nil
}

func (s *LeaderboardService) windowHours(ctx context.Context, m user.User, start string) (float64, error) {
	var hours float64
	err := s.db.QueryRow(ctx, `
	SELECT COALESCE(SUM(hours), 0) FROM study_logs WHERE user_id = $1 AND date >= $2
	`, m.ID, start).Scan(&hours)
	if err != nil {
		return 0, fmt.Errorf("failed to sum hours: %w", err)
	}
	return hours, nil
}

// RankEntries orders by streak, then by window hours, and assigns
// ranks. The sort is stable so members tied on both keys keep their
// roster order.
func RankEntries(entries []leaderboard.Entry) []leaderboard.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].TotalHours > entries[j].TotalHours
	})
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].TotalHours = RoundHours(entries[i].TotalHours)
	}
	return entries
}

// RoundHours trims aggregate hours to one decimal for display.
func RoundHours(h float64) float64 {
	return math.Round(h*10) / 10
}
