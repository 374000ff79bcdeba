package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"numerom/internal/models"
)

// AddTimeActivity прибавляет минуты и баллы к накопленному времени студента
// в уроке и возвращает новые итоги
func (s *SQLiteStorage) AddTimeActivity(userID, lessonID string, minutes, points int) (models.ActivityTotals, error) {
	now := formatTime(time.Now())

	tx, err := s.db.Begin()
	if err != nil {
		return models.ActivityTotals{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO time_activity (user_id, lesson_id, total_minutes, total_points, started_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, lesson_id) DO UPDATE SET
			total_minutes = total_minutes + excluded.total_minutes,
			total_points = total_points + excluded.total_points,
			last_activity_at = excluded.last_activity_at`,
		userID, lessonID, minutes, points, now, now)
	if err != nil {
		return models.ActivityTotals{}, fmt.Errorf("add time activity: %w", err)
	}

	totals, err := scanTotals(tx.QueryRow(`
		SELECT total_minutes, total_points, started_at, last_activity_at
		FROM time_activity WHERE user_id = ? AND lesson_id = ?`, userID, lessonID))
	if err != nil {
		return models.ActivityTotals{}, fmt.Errorf("read time activity: %w", err)
	}

	return totals, tx.Commit()
}

// GetTimeActivity возвращает накопленное время; без записей итоги нулевые
func (s *SQLiteStorage) GetTimeActivity(userID, lessonID string) (models.ActivityTotals, error) {
	totals, err := scanTotals(s.db.QueryRow(`
		SELECT total_minutes, total_points, started_at, last_activity_at
		FROM time_activity WHERE user_id = ? AND lesson_id = ?`, userID, lessonID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActivityTotals{}, nil
	}
	if err != nil {
		return models.ActivityTotals{}, fmt.Errorf("get time activity: %w", err)
	}
	return totals, nil
}

// AddVideoWatch прибавляет минуты просмотра видео. Баллы пересчитываются
// от общего количества минут.
func (s *SQLiteStorage) AddVideoWatch(userID, lessonID, fileID string, minutes, pointsPerMinute int) (models.ActivityTotals, error) {
	now := formatTime(time.Now())

	tx, err := s.db.Begin()
	if err != nil {
		return models.ActivityTotals{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO video_watch_time (user_id, file_id, lesson_id, total_minutes, total_points, started_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, file_id) DO UPDATE SET
			total_minutes = total_minutes + excluded.total_minutes,
			total_points = (total_minutes + excluded.total_minutes) * ?,
			last_activity_at = excluded.last_activity_at`,
		userID, fileID, lessonID, minutes, minutes*pointsPerMinute, now, now, pointsPerMinute)
	if err != nil {
		return models.ActivityTotals{}, fmt.Errorf("add video watch: %w", err)
	}

	totals, err := scanTotals(tx.QueryRow(`
		SELECT total_minutes, total_points, started_at, last_activity_at
		FROM video_watch_time WHERE user_id = ? AND file_id = ?`, userID, fileID))
	if err != nil {
		return models.ActivityTotals{}, fmt.Errorf("read video watch: %w", err)
	}

	return totals, tx.Commit()
}

// SumPoints суммирует все выданные баллы по источникам
func (s *SQLiteStorage) SumPoints() (models.PointsSummary, error) {
	var p models.PointsSummary
	err := s.db.QueryRow(`
		SELECT
			(SELECT COALESCE(SUM(points_earned), 0) FROM challenge_progress),
			(SELECT COALESCE(SUM(points_earned), 0) FROM quiz_attempts),
			(SELECT COALESCE(SUM(total_points), 0) FROM time_activity),
			(SELECT COALESCE(SUM(total_points), 0) FROM video_watch_time)`,
	).Scan(&p.Challenges, &p.Quizzes, &p.Time, &p.Videos)
	if err != nil {
		return p, fmt.Errorf("sum points: %w", err)
	}
	p.Total = p.Challenges + p.Quizzes + p.Time + p.Videos
	return p, nil
}

// SumUserActivity суммирует время в уроках и просмотр видео студента.
// Даты в итогах не заполняются.
func (s *SQLiteStorage) SumUserActivity(userID string) (timeTotals, videoTotals models.ActivityTotals, err error) {
	err = s.db.QueryRow(`
		SELECT
			(SELECT COALESCE(SUM(total_minutes), 0) FROM time_activity WHERE user_id = ?),
			(SELECT COALESCE(SUM(total_points), 0) FROM time_activity WHERE user_id = ?),
			(SELECT COALESCE(SUM(total_minutes), 0) FROM video_watch_time WHERE user_id = ?),
			(SELECT COALESCE(SUM(total_points), 0) FROM video_watch_time WHERE user_id = ?)`,
		userID, userID, userID, userID,
	).Scan(&timeTotals.TotalMinutes, &timeTotals.TotalPoints, &videoTotals.TotalMinutes, &videoTotals.TotalPoints)
	if err != nil {
		err = fmt.Errorf("sum user activity: %w", err)
	}
	return timeTotals, videoTotals, err
}

func scanTotals(row rowScanner) (models.ActivityTotals, error) {
	var (
		t                         models.ActivityTotals
		startedAt, lastActivityAt string
	)
	if err := row.Scan(&t.TotalMinutes, &t.TotalPoints, &startedAt, &lastActivityAt); err != nil {
		return t, err
	}
	started, last := parseTime(startedAt), parseTime(lastActivityAt)
	t.StartedAt, t.LastActivityAt = &started, &last
	return t, nil
}
