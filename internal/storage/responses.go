package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"numerom/internal/models"
)

const responseColumns = `id, user_id, lesson_id, exercise_id, response_text, submitted_at,
	reviewed, admin_comment, reviewed_at, reviewed_by`

// SaveExerciseResponse сохраняет ответ. Повторная отправка того же упражнения
// обновляет только текст и время отправки; r.ID получает идентификатор
// существующей записи.
func (s *SQLiteStorage) SaveExerciseResponse(r *models.ExerciseResponse) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}

	var id string
	err := s.db.QueryRow(`
		INSERT INTO exercise_responses (id, user_id, lesson_id, exercise_id, response_text, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, lesson_id, exercise_id) DO UPDATE SET
			response_text=excluded.response_text,
			submitted_at=excluded.submitted_at
		RETURNING id`,
		r.ID, r.UserID, r.LessonID, r.ExerciseID, r.ResponseText, formatTime(r.SubmittedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert exercise response: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteStorage) GetExerciseResponses(userID, lessonID string) ([]models.ExerciseResponse, error) {
	return s.queryResponses(`SELECT `+responseColumns+` FROM exercise_responses
		WHERE user_id = ? AND lesson_id = ? ORDER BY submitted_at`, userID, lessonID)
}

func (s *SQLiteStorage) ListResponsesByLesson(lessonID string) ([]models.ExerciseResponse, error) {
	return s.queryResponses(`SELECT `+responseColumns+` FROM exercise_responses
		WHERE lesson_id = ? ORDER BY submitted_at DESC`, lessonID)
}

// ReviewExerciseResponse отмечает ответ проверенным и сохраняет комментарий
func (s *SQLiteStorage) ReviewExerciseResponse(id, comment, reviewer string) (*models.ExerciseResponse, error) {
	res, err := s.db.Exec(`
		UPDATE exercise_responses
		SET reviewed = 1, admin_comment = ?, reviewed_at = ?, reviewed_by = ?
		WHERE id = ?`, comment, formatTime(time.Now()), reviewer, id)
	if err != nil {
		return nil, fmt.Errorf("review response %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	row := s.db.QueryRow(`SELECT `+responseColumns+` FROM exercise_responses WHERE id = ?`, id)
	r, err := scanResponse(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// ListPendingResponses возвращает непроверенные ответы, новые первыми
func (s *SQLiteStorage) ListPendingResponses(limit int) ([]models.ExerciseResponse, error) {
	return s.queryResponses(`SELECT `+responseColumns+` FROM exercise_responses
		WHERE reviewed = 0 ORDER BY submitted_at DESC LIMIT ?`, limit)
}

func (s *SQLiteStorage) CountResponses() (total, pending int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN reviewed = 0 THEN 1 ELSE 0 END), 0)
		FROM exercise_responses`).Scan(&total, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("count responses: %w", err)
	}
	return total, pending, nil
}

func (s *SQLiteStorage) DeleteExerciseResponses(userID, lessonID string) error {
	_, err := s.db.Exec(`DELETE FROM exercise_responses WHERE user_id = ? AND lesson_id = ?`, userID, lessonID)
	return err
}

// ListResponsesByUser возвращает ответы студента по всем урокам
func (s *SQLiteStorage) ListResponsesByUser(userID string) ([]models.ExerciseResponse, error) {
	return s.queryResponses(`SELECT `+responseColumns+` FROM exercise_responses
		WHERE user_id = ? ORDER BY submitted_at DESC`, userID)
}

func (s *SQLiteStorage) queryResponses(query string, args ...any) ([]models.ExerciseResponse, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	responses := make([]models.ExerciseResponse, 0)
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

func scanResponse(row rowScanner) (*models.ExerciseResponse, error) {
	var (
		r           models.ExerciseResponse
		submittedAt string
		reviewedAt  sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.LessonID, &r.ExerciseID, &r.ResponseText, &submittedAt,
		&r.Reviewed, &r.AdminComment, &reviewedAt, &r.ReviewedBy)
	if err != nil {
		return nil, err
	}
	r.SubmittedAt = parseTime(submittedAt)
	r.ReviewedAt = parseNullTime(reviewedAt)
	return &r, nil
}
