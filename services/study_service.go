package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/summary"
	"streetLearnAPI/internal/types/calendar"
	"streetLearnAPI/internal/types/studylog"
	"streetLearnAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxDailyHours caps the merged total for one calendar day.
const maxDailyHours = 24

type StudyService struct {
	db         *pgxpool.Pool
	summarizer *summary.Service
	broker     *subscribe.Broker
}

func NewStudyService(db *pgxpool.Pool, summarizer *summary.Service, broker *subscribe.Broker) *StudyService {
	return &StudyService{db: db, summarizer: summarizer, broker: broker}
}

// MergeHours combines an existing day total with a new session. The
// merged total clamps at the daily cap; once a day is already full any
// further log is rejected.
func MergeHours(existing, added float64) (float64, error) {
	if added <= 0 {
		return 0, fmt.Errorf("%w: hours must be positive", apperr.ErrValidation)
	}
	if existing >= maxDailyHours {
		return 0, fmt.Errorf("%w: the %d hour daily cap is already reached", apperr.ErrValidation, maxDailyHours)
	}
	total := existing + added
	if total > maxDailyHours {
		total = maxDailyHours
	}
	return total, nil
}

// MergeTopics appends the new topic to the day's topic list unless it
// is already present.
func MergeTopics(existing, added string) string {
	for _, t := range strings.Split(existing, ", ") {
		if t == added {
			return existing
		}
	}
	return existing + ", " + added
}

// NextStreak computes the streak after a log on a fresh day: it extends
// only when the previous study day was exactly yesterday.
func NextStreak(current int, lastStudyDate *string, today string) int {
	if lastStudyDate != nil && *lastStudyDate == utils.Yesterday(today) {
		return current + 1
	}
	return 1
}

// RecordStudySession logs hours for today, merging into an existing
// entry for the same day. The user row lock serializes concurrent logs
// from the same account so two requests can never race past the daily
// cap or double-increment the streak.
func (s *StudyService) RecordStudySession(ctx context.Context, clerkID string, req *studylog.LogStudyRequest) (*studylog.LogStudyResult, error) {
	if req.Hours <= 0 || req.Hours > maxDailyHours {
		return nil, fmt.Errorf("%w: hours must be between 0 and %d", apperr.ErrValidation, maxDailyHours)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", apperr.ErrValidation)
	}

	today := utils.TodayIST()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID        uuid.UUID
		streak        int
		lastStudyDate *string
	)
	err = tx.QueryRow(ctx, `
	SELECT id, streak, last_study_date FROM users WHERE clerk_id = $1 FOR UPDATE
	`, clerkID).Scan(&userID, &streak, &lastStudyDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}

	entry := &studylog.StudyLog{UserID: userID, Date: today}

	var (
		existingHours float64
		existingTopic string
		merged        bool
	)
	err = tx.QueryRow(ctx, `
	SELECT hours, topic FROM study_logs WHERE user_id = $1 AND date = $2 FOR UPDATE
	`, userID, today).Scan(&existingHours, &existingTopic)
	switch {
	case err == nil:
		merged = true
	case errors.Is(err, pgx.ErrNoRows):
		merged = false
	default:
		return nil, fmt.Errorf("failed to read today's log: %w", err)
	}

	if merged {
		total, err := MergeHours(existingHours, req.Hours)
		if err != nil {
			return nil, err
		}
		entry.Hours = total
		entry.Topic = MergeTopics(existingTopic, strings.TrimSpace(req.Topic))

		err = tx.QueryRow(ctx, `
		UPDATE study_logs
		SET hours = $3, topic = $4, last_updated_at = NOW()
		WHERE user_id = $1 AND date = $2
		RETURNING created_at, last_updated_at
		`, userID, today, entry.Hours, entry.Topic).Scan(&entry.CreatedAt, &entry.LastUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to merge study log: %w", err)
		}
	} else {
		entry.Hours = req.Hours
		entry.Topic = strings.TrimSpace(req.Topic)

		err = tx.QueryRow(ctx, `
		INSERT INTO study_logs (user_id, date, hours, topic, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, last_updated_at
		`, userID, today, entry.Hours, entry.Topic).Scan(&entry.CreatedAt, &entry.LastUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert study log: %w", err)
		}

		streak = NextStreak(streak, lastStudyDate, today)

		_, err = tx.Exec(ctx, `
		UPDATE users SET streak = $2, last_study_date = $3, updated_at = NOW() WHERE id = $1
		`, userID, streak, today)
		if err != nil {
			return nil, fmt.Errorf("failed to update streak: %w", err)
		}

		_, err = tx.Exec(ctx, `
		INSERT INTO streak_history (user_id, date, streak)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date) DO UPDATE SET streak = EXCLUDED.streak
		`, userID, today, streak)
		if err != nil {
			return nil, fmt.Errorf("failed to record streak history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit study log: %w", err)
	}

	if s.summarizer != nil {
		text := s.summarizer.Summarize(ctx, entry.Topic, entry.Hours, "")
		if _, err := s.db.Exec(ctx, `
		UPDATE study_logs SET summary = $3 WHERE user_id = $1 AND date = $2
		`, userID, today, text); err != nil {
			log.Printf("StudyService: failed to store summary for %s on %s: %v", userID, today, err)
		} else {
			entry.Summary = &text
		}
	}

	s.broker.Publish("study_logs", fmt.Sprintf("%s_%s", userID, today), eventKind(merged))

	return &studylog.LogStudyResult{Entry: entry, Streak: streak, Merged: merged}, nil
}

func eventKind(merged bool) string {
	if merged {
		return "updated"
	}
	return "created"
}

// GetStudyHistory returns the member's logs, newest first.
func (s *StudyService) GetStudyHistory(ctx context.Context, clerkID string) ([]studylog.StudyLog, error) {
	query := `
	SELECT l.user_id, l.date, l.hours, l.topic, l.summary,
	       l.file_name, l.file_mime, l.file_size, l.file_url,
	       l.created_at, l.last_updated_at
	FROM study_logs l
	JOIN users u ON u.id = l.user_id
	WHERE u.clerk_id = $1
	ORDER BY l.date DESC
	`

	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get study history: %w", err)
	}
	defer rows.Close()

	return scanStudyLogs(rows)
}

// GetStreakHistory returns one point per studied day with the streak
// value at that day.
func (s *StudyService) GetStreakHistory(ctx context.Context, clerkID string) ([]studylog.StreakPoint, error) {
	query := `
	SELECT h.date, h.streak
	FROM streak_history h
	JOIN users u ON u.id = h.user_id
	WHERE u.clerk_id = $1
	ORDER BY h.date
	`

	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak history: %w", err)
	}
	defer rows.Close()

	var points []studylog.StreakPoint
	for rows.Next() {
		var p studylog.StreakPoint
		if err := rows.Scan(&p.Date, &p.Streak); err != nil {
			return nil, fmt.Errorf("failed to scan streak point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetStreakSeries builds the binary studied/not-studied series for the
// trailing days window, today included.
func (s *StudyService) GetStreakSeries(ctx context.Context, clerkID string, days int) ([]studylog.PresencePoint, error) {
	if days <= 0 {
		days = 7
	}

	now := time.Now().In(utils.IST)
	start := utils.FormatDate(now.AddDate(0, 0, -(days - 1)))

	query := `
	SELECT l.date
	FROM study_logs l
	JOIN users u ON u.id = l.user_id
	WHERE u.clerk_id = $1 AND l.date >= $2
	`

	rows, err := s.db.Query(ctx, query, clerkID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak series: %w", err)
	}
	defer rows.Close()

	studied := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan log date: %w", err)
		}
		studied[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	points := make([]studylog.PresencePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := utils.FormatDate(now.AddDate(0, 0, -i))
		p := studylog.PresencePoint{Date: date}
		if studied[date] {
			p.Studied = 1
		}
		points = append(points, p)
	}
	return points, nil
}

// GetCalendar renders one month of studied-day markers for the member.
func (s *StudyService) GetCalendar(ctx context.Context, clerkID string, year, month int) (*calendar.CalendarResponse, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, utils.IST)
	next := first.AddDate(0, 1, 0)

	query := `
	SELECT l.date
	FROM study_logs l
	JOIN users u ON u.id = l.user_id
	WHERE u.clerk_id = $1 AND l.date >= $2 AND l.date < $3
	`

	rows, err := s.db.Query(ctx, query, clerkID, utils.FormatDate(first), utils.FormatDate(next))
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}
	defer rows.Close()

	studied := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan calendar date: %w", err)
		}
		studied[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return BuildCalendar(year, month, studied, utils.TodayIST()), nil
}

// BuildCalendar lays out one month of day markers from the set of
// studied dates.
func BuildCalendar(year, month int, studied map[string]bool, today string) *calendar.CalendarResponse {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, utils.IST)
	next := first.AddDate(0, 1, 0)

	resp := &calendar.CalendarResponse{Year: year, Month: month}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		date := utils.FormatDate(d)
		resp.Days = append(resp.Days, calendar.CalendarDay{
			Date:         date,
			StudiedToday: studied[date],
			IsToday:      date == today,
		})
	}
	return resp
}

func scanStudyLogs(rows pgx.Rows) ([]studylog.StudyLog, error) {
	var logs []studylog.StudyLog
	for rows.Next() {
		var (
			l        studylog.StudyLog
			fileName *string
			fileMime *string
			fileSize *int64
			fileURL  *string
		)
		err := rows.Scan(
			&l.UserID,
			&l.Date,
			&l.Hours,
			&l.Topic,
			&l.Summary,
			&fileName,
			&fileMime,
			&fileSize,
			&fileURL,
			&l.CreatedAt,
			&l.LastUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study log: %w", err)
		}
		if fileName != nil && fileURL != nil {
			l.File = &studylog.FileRef{Name: *fileName, MimeType: deref(fileMime), SizeBytes: derefInt(fileSize), URL: *fileURL}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
