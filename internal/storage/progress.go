package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"numerom/internal/models"
)

const progressColumns = `id, user_id, lesson_id, exercises_completed, theory_completed,
	challenge_completed, quiz_completed, quiz_passed, completion_percentage, is_completed,
	started_at, completed_at, last_activity_at`

// SaveLessonProgress создаёт или обновляет прогресс студента по уроку.
// Дата начала существующей записи не меняется.
func (s *SQLiteStorage) SaveLessonProgress(p *models.LessonProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var id string
	err := s.db.QueryRow(`
		INSERT INTO lesson_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, lesson_id) DO UPDATE SET
			exercises_completed=excluded.exercises_completed,
			theory_completed=excluded.theory_completed,
			challenge_completed=excluded.challenge_completed,
			quiz_completed=excluded.quiz_completed,
			quiz_passed=excluded.quiz_passed,
			completion_percentage=excluded.completion_percentage,
			is_completed=excluded.is_completed,
			completed_at=excluded.completed_at,
			last_activity_at=excluded.last_activity_at
		RETURNING id`,
		p.ID, p.UserID, p.LessonID, p.ExercisesCompleted, p.TheoryCompleted,
		p.ChallengeCompleted, p.QuizCompleted, p.QuizPassed, p.CompletionPercentage, p.IsCompleted,
		formatTime(p.StartedAt), formatNullTime(p.CompletedAt), formatTime(p.LastActivityAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert lesson progress: %w", err)
	}
	p.ID = id
	return nil
}

func (s *SQLiteStorage) GetLessonProgress(userID, lessonID string) (*models.LessonProgress, error) {
	row := s.db.QueryRow(`SELECT `+progressColumns+` FROM lesson_progress
		WHERE user_id = ? AND lesson_id = ?`, userID, lessonID)
	p, err := scanProgress(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *SQLiteStorage) ListProgressByLesson(lessonID string) ([]models.LessonProgress, error) {
	return s.queryProgress(`SELECT `+progressColumns+` FROM lesson_progress
		WHERE lesson_id = ? ORDER BY started_at`, lessonID)
}

func (s *SQLiteStorage) ListAllProgress() ([]models.LessonProgress, error) {
	return s.queryProgress(`SELECT ` + progressColumns + ` FROM lesson_progress ORDER BY started_at`)
}

func (s *SQLiteStorage) ListProgressByUser(userID string) ([]models.LessonProgress, error) {
	return s.queryProgress(`SELECT `+progressColumns+` FROM lesson_progress
		WHERE user_id = ? ORDER BY started_at`, userID)
}

func (s *SQLiteStorage) DeleteLessonProgress(userID, lessonID string) error {
	_, err := s.db.Exec(`DELETE FROM lesson_progress WHERE user_id = ? AND lesson_id = ?`, userID, lessonID)
	return err
}

func (s *SQLiteStorage) queryProgress(query string, args ...any) ([]models.LessonProgress, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson progress: %w", err)
	}
	defer rows.Close()

	list := make([]models.LessonProgress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func scanProgress(row rowScanner) (*models.LessonProgress, error) {
	var (
		p                         models.LessonProgress
		startedAt, lastActivityAt string
		completedAt               sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.LessonID, &p.ExercisesCompleted, &p.TheoryCompleted,
		&p.ChallengeCompleted, &p.QuizCompleted, &p.QuizPassed, &p.CompletionPercentage, &p.IsCompleted,
		&startedAt, &completedAt, &lastActivityAt)
	if err != nil {
		return nil, err
	}
	p.StartedAt = parseTime(startedAt)
	p.CompletedAt = parseNullTime(completedAt)
	p.LastActivityAt = parseTime(lastActivityAt)
	return &p, nil
}
