package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"numerom/internal/models"
)

// Тесты

const quizColumns = `id, user_id, lesson_id, quiz_id, score, passed, answers, points_earned, attempted_at`

func (s *SQLiteStorage) SaveQuizAttempt(a *models.QuizAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now().UTC()
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO quiz_attempts (`+quizColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.LessonID, a.QuizID, a.Score, a.Passed, string(answers), a.PointsEarned,
		formatTime(a.AttemptedAt))
	if err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// ListQuizAttempts возвращает попытки студента, новые первыми
func (s *SQLiteStorage) ListQuizAttempts(userID, lessonID string) ([]models.QuizAttempt, error) {
	return s.queryQuizAttempts(`SELECT `+quizColumns+` FROM quiz_attempts
		WHERE user_id = ? AND lesson_id = ? ORDER BY attempted_at DESC, rowid DESC`, userID, lessonID)
}

func (s *SQLiteStorage) ListQuizAttemptsByLesson(lessonID string) ([]models.QuizAttempt, error) {
	return s.queryQuizAttempts(`SELECT `+quizColumns+` FROM quiz_attempts
		WHERE lesson_id = ? ORDER BY attempted_at DESC, rowid DESC`, lessonID)
}

func (s *SQLiteStorage) ListQuizAttemptsByUser(userID string) ([]models.QuizAttempt, error) {
	return s.queryQuizAttempts(`SELECT `+quizColumns+` FROM quiz_attempts
		WHERE user_id = ? ORDER BY attempted_at DESC, rowid DESC`, userID)
}

func (s *SQLiteStorage) queryQuizAttempts(query string, args ...any) ([]models.QuizAttempt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]models.QuizAttempt, 0)
	for rows.Next() {
		var (
			a           models.QuizAttempt
			answers     string
			attemptedAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.LessonID, &a.QuizID, &a.Score, &a.Passed,
			&answers, &a.PointsEarned, &attemptedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %s: %w", a.ID, err)
		}
		a.AttemptedAt = parseTime(attemptedAt)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Челленджи

const challengeColumns = `id, user_id, lesson_id, challenge_id, current_day, completed_days,
	daily_notes, is_completed, started_at, completed_at, points_earned, attempt_number`

// SaveChallengeProgress создаёт или полностью перезаписывает попытку челленджа
func (s *SQLiteStorage) SaveChallengeProgress(p *models.ChallengeProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	days, err := json.Marshal(orEmpty(p.CompletedDays))
	if err != nil {
		return fmt.Errorf("marshal completed_days: %w", err)
	}
	notes, err := json.Marshal(orEmpty(p.DailyNotes))
	if err != nil {
		return fmt.Errorf("marshal daily_notes: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO challenge_progress (`+challengeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_day=excluded.current_day,
			completed_days=excluded.completed_days,
			daily_notes=excluded.daily_notes,
			is_completed=excluded.is_completed,
			completed_at=excluded.completed_at,
			points_earned=excluded.points_earned,
			attempt_number=excluded.attempt_number`,
		p.ID, p.UserID, p.LessonID, p.ChallengeID, p.CurrentDay, string(days), string(notes),
		p.IsCompleted, formatTime(p.StartedAt), formatNullTime(p.CompletedAt), p.PointsEarned, p.AttemptNumber)
	if err != nil {
		return fmt.Errorf("upsert challenge progress: %w", err)
	}
	return nil
}

// GetActiveChallengeProgress возвращает незавершённую попытку челленджа
func (s *SQLiteStorage) GetActiveChallengeProgress(userID, lessonID, challengeID string) (*models.ChallengeProgress, error) {
	row := s.db.QueryRow(`SELECT `+challengeColumns+` FROM challenge_progress
		WHERE user_id = ? AND lesson_id = ? AND challenge_id = ? AND is_completed = 0
		ORDER BY attempt_number DESC LIMIT 1`, userID, lessonID, challengeID)
	p, err := scanChallenge(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListChallengeProgress возвращает все попытки студента, новые первыми
func (s *SQLiteStorage) ListChallengeProgress(userID, lessonID, challengeID string) ([]models.ChallengeProgress, error) {
	return s.queryChallenges(`SELECT `+challengeColumns+` FROM challenge_progress
		WHERE user_id = ? AND lesson_id = ? AND challenge_id = ?
		ORDER BY attempt_number DESC`, userID, lessonID, challengeID)
}

func (s *SQLiteStorage) ListChallengeProgressByLesson(lessonID string) ([]models.ChallengeProgress, error) {
	return s.queryChallenges(`SELECT `+challengeColumns+` FROM challenge_progress
		WHERE lesson_id = ? ORDER BY started_at DESC`, lessonID)
}

// ListChallengeProgressByUser возвращает попытки студента по всем челленджам
func (s *SQLiteStorage) ListChallengeProgressByUser(userID string) ([]models.ChallengeProgress, error) {
	return s.queryChallenges(`SELECT `+challengeColumns+` FROM challenge_progress
		WHERE user_id = ? ORDER BY started_at DESC`, userID)
}

func (s *SQLiteStorage) CountCompletedChallenges(userID, lessonID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM challenge_progress
		WHERE user_id = ? AND lesson_id = ? AND is_completed = 1`, userID, lessonID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed challenges: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) queryChallenges(query string, args ...any) ([]models.ChallengeProgress, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query challenge progress: %w", err)
	}
	defer rows.Close()

	list := make([]models.ChallengeProgress, 0)
	for rows.Next() {
		p, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func scanChallenge(row rowScanner) (*models.ChallengeProgress, error) {
	var (
		p           models.ChallengeProgress
		days, notes string
		startedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.LessonID, &p.ChallengeID, &p.CurrentDay, &days, &notes,
		&p.IsCompleted, &startedAt, &completedAt, &p.PointsEarned, &p.AttemptNumber)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(days), &p.CompletedDays); err != nil {
		return nil, fmt.Errorf("decode completed_days of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(notes), &p.DailyNotes); err != nil {
		return nil, fmt.Errorf("decode daily_notes of %s: %w", p.ID, err)
	}
	p.CompletedDays = orEmpty(p.CompletedDays)
	p.DailyNotes = orEmpty(p.DailyNotes)
	p.StartedAt = parseTime(startedAt)
	p.CompletedAt = parseNullTime(completedAt)
	return &p, nil
}
