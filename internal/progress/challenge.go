package progress

import (
	"errors"
	"log/slog"
	"time"

	"numerom/internal/models"
	"numerom/internal/storage"
)

const defaultChallengeDays = 7

// DayReport описывает отметку студента за один день челленджа
type DayReport struct {
	ChallengeID string `json:"challenge_id"`
	Day         int    `json:"day"`
	Note        string `json:"note"`
	Completed   bool   `json:"completed"`
}

// ChallengeStatus описывает текущую (или последнюю) попытку челленджа
type ChallengeStatus struct {
	CurrentDay    int                `json:"current_day"`
	CompletedDays []int              `json:"completed_days"`
	DailyNotes    []models.DailyNote `json:"daily_notes"`
	IsCompleted   bool               `json:"is_completed"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	AttemptNumber int                `json:"attempt_number"`
	TotalAttempts int                `json:"total_attempts"`
	PointsEarned  int                `json:"points_earned"`
	TotalPoints   int                `json:"total_points"`
}

// ChallengeHistory содержит все попытки челленджа, новые первыми
type ChallengeHistory struct {
	LessonID      string                     `json:"lesson_id"`
	ChallengeID   string                     `json:"challenge_id"`
	TotalAttempts int                        `json:"total_attempts"`
	TotalPoints   int                        `json:"total_points"`
	Attempts      []models.ChallengeProgress `json:"attempts"`
}

// ChallengePoints начисляет баллы за попытку: дни × множитель и бонус за завершение
func (s *Service) ChallengePoints(completedDays int, completed bool) int {
	points := completedDays * s.scoring.PointsPerDay
	if completed {
		points += s.scoring.ChallengeBonusPoints
	}
	return points
}

// SaveChallengeDay отмечает день челленджа в активной попытке. Если активной
// попытки нет, начинается новая с очередным номером. Заметка за день
// заменяет предыдущую. Сохранения одной попытки выполняются по очереди.
func (s *Service) SaveChallengeDay(userID, lessonID string, report DayReport) (*models.ChallengeProgress, error) {
	if report.ChallengeID == "" {
		return nil, invalid("challenge_id is required")
	}

	lesson, err := s.store.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}
	duration := defaultChallengeDays
	if lesson.Challenge != nil && lesson.Challenge.DurationDays > 0 {
		duration = lesson.Challenge.DurationDays
	}
	if report.Day < 1 || report.Day > duration {
		return nil, invalid("day must be within 1..%d, got %d", duration, report.Day)
	}

	unlock := s.challengeLocks.Lock(userID + "\x00" + lessonID + "\x00" + report.ChallengeID)
	defer unlock()

	now := s.now()
	attempt, err := s.store.GetActiveChallengeProgress(userID, lessonID, report.ChallengeID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		history, err := s.store.ListChallengeProgress(userID, lessonID, report.ChallengeID)
		if err != nil {
			return nil, err
		}
		attempt = &models.ChallengeProgress{
			UserID:        userID,
			LessonID:      lessonID,
			ChallengeID:   report.ChallengeID,
			CompletedDays: make([]int, 0),
			DailyNotes:    make([]models.DailyNote, 0),
			StartedAt:     now,
			AttemptNumber: len(history) + 1,
		}
	case err != nil:
		return nil, err
	}

	note := models.DailyNote{Day: report.Day, Note: report.Note, CompletedAt: now}
	replaced := false
	for i := range attempt.DailyNotes {
		if attempt.DailyNotes[i].Day == report.Day {
			attempt.DailyNotes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		attempt.DailyNotes = append(attempt.DailyNotes, note)
	}

	if report.Completed && !containsDay(attempt.CompletedDays, report.Day) {
		attempt.CompletedDays = append(attempt.CompletedDays, report.Day)
	}

	attempt.CurrentDay = maxDay(attempt.CompletedDays) + 1
	attempt.IsCompleted = len(attempt.CompletedDays) >= duration
	if attempt.IsCompleted {
		attempt.CompletedAt = &now
	}
	attempt.PointsEarned = s.ChallengePoints(len(attempt.CompletedDays), attempt.IsCompleted)

	if err := s.store.SaveChallengeProgress(attempt); err != nil {
		return nil, err
	}
	if _, err := s.Recalculate(userID, lessonID); err != nil {
		return nil, err
	}

	slog.Info("challenge progress saved",
		"user_id", userID,
		"lesson_id", lessonID,
		"day", report.Day,
		"attempt", attempt.AttemptNumber,
		"completed", attempt.IsCompleted,
	)
	return attempt, nil
}

// ChallengeStatus возвращает активную попытку, а если её нет, то последнюю.
// Сумма баллов учитывает только завершённые попытки.
func (s *Service) ChallengeStatus(userID, lessonID, challengeID string) (*ChallengeStatus, error) {
	history, err := s.store.ListChallengeProgress(userID, lessonID, challengeID)
	if err != nil {
		return nil, err
	}

	status := &ChallengeStatus{
		CurrentDay:    1,
		CompletedDays: make([]int, 0),
		DailyNotes:    make([]models.DailyNote, 0),
		AttemptNumber: len(history) + 1,
		TotalAttempts: len(history),
	}

	var current *models.ChallengeProgress
	for i := range history {
		if history[i].IsCompleted {
			status.TotalPoints += history[i].PointsEarned
		} else if current == nil {
			current = &history[i]
		}
	}
	if current == nil && len(history) > 0 {
		current = &history[0]
	}
	if current == nil {
		return status, nil
	}

	status.CurrentDay = current.CurrentDay
	status.CompletedDays = current.CompletedDays
	status.DailyNotes = current.DailyNotes
	status.IsCompleted = current.IsCompleted
	started := current.StartedAt
	status.StartedAt = &started
	status.AttemptNumber = current.AttemptNumber
	status.PointsEarned = current.PointsEarned
	return status, nil
}

// ChallengeHistory возвращает все попытки челленджа и сумму баллов по ним
func (s *Service) ChallengeHistory(userID, lessonID, challengeID string) (*ChallengeHistory, error) {
	attempts, err := s.store.ListChallengeProgress(userID, lessonID, challengeID)
	if err != nil {
		return nil, err
	}

	h := &ChallengeHistory{
		LessonID:      lessonID,
		ChallengeID:   challengeID,
		TotalAttempts: len(attempts),
		Attempts:      attempts,
	}
	for _, a := range attempts {
		h.TotalPoints += a.PointsEarned
	}
	return h, nil
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func maxDay(days []int) int {
	m := 0
	for _, d := range days {
		if d > m {
			m = d
		}
	}
	return m
}
