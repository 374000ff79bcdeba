package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"numerom/internal/models"
)

const lessonColumns = `id, title, description, module, level, lesson_order, points_required,
	is_active, analytics_enabled, theory, exercises, challenge, quiz, created_at, updated_at`

// SaveLesson создаёт или обновляет урок. Разделы хранятся как JSON.
func (s *SQLiteStorage) SaveLesson(lesson *models.Lesson) error {
	theory, err := json.Marshal(orEmpty(lesson.Theory))
	if err != nil {
		return fmt.Errorf("marshal theory: %w", err)
	}
	exercises, err := json.Marshal(orEmpty(lesson.Exercises))
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}
	challenge, err := marshalOptional(lesson.Challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	quiz, err := marshalOptional(lesson.Quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}

	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO lessons (`+lessonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			module=excluded.module,
			level=excluded.level,
			lesson_order=excluded.lesson_order,
			points_required=excluded.points_required,
			is_active=excluded.is_active,
			analytics_enabled=excluded.analytics_enabled,
			theory=excluded.theory,
			exercises=excluded.exercises,
			challenge=excluded.challenge,
			quiz=excluded.quiz,
			updated_at=excluded.updated_at`,
		lesson.ID, lesson.Title, lesson.Description, lesson.Module, lesson.Level, lesson.Order,
		lesson.PointsRequired, lesson.IsActive, lesson.AnalyticsEnabled,
		string(theory), string(exercises), challenge, quiz,
		formatTime(lesson.CreatedAt), formatTime(lesson.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert lesson %s: %w", lesson.ID, err)
	}
	return nil
}

func (s *SQLiteStorage) GetLesson(id string) (*models.Lesson, error) {
	row := s.db.QueryRow(`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)
	lesson, err := scanLesson(row)
	if err != nil {
		return nil, notFound(err)
	}
	return lesson, nil
}

func (s *SQLiteStorage) ListLessons(activeOnly bool) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY lesson_order, title`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *lesson)
	}
	return lessons, rows.Err()
}

// DeleteLesson удаляет урок вместе со всеми связанными записями студентов
func (s *SQLiteStorage) DeleteLesson(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lesson %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	for _, table := range []string{
		"exercise_responses", "lesson_progress", "quiz_attempts",
		"challenge_progress", "time_activity", "video_watch_time",
	} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE lesson_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s for lesson %s: %w", table, id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) CountLessons(activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM lessons`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	var n int
	if err := s.db.QueryRow(query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return n, nil
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var (
		l                    models.Lesson
		theory, exercises    string
		challenge, quiz      sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Module, &l.Level, &l.Order,
		&l.PointsRequired, &l.IsActive, &l.AnalyticsEnabled,
		&theory, &exercises, &challenge, &quiz, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(theory), &l.Theory); err != nil {
		return nil, fmt.Errorf("decode theory of lesson %s: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(exercises), &l.Exercises); err != nil {
		return nil, fmt.Errorf("decode exercises of lesson %s: %w", l.ID, err)
	}
	if challenge.Valid {
		l.Challenge = &models.Challenge{}
		if err := json.Unmarshal([]byte(challenge.String), l.Challenge); err != nil {
			return nil, fmt.Errorf("decode challenge of lesson %s: %w", l.ID, err)
		}
	}
	if quiz.Valid {
		l.Quiz = &models.Quiz{}
		if err := json.Unmarshal([]byte(quiz.String), l.Quiz); err != nil {
			return nil, fmt.Errorf("decode quiz of lesson %s: %w", l.ID, err)
		}
	}
	l.Theory = orEmpty(l.Theory)
	l.Exercises = orEmpty(l.Exercises)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)

	return &l, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}

func marshalOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
