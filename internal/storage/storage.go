package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"numerom/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound возвращается, если запись не существует
var ErrNotFound = errors.New("storage: not found")

// Storage определяет интерфейс хранения уроков и прогресса студентов
type Storage interface {
	// Уроки
	SaveLesson(lesson *models.Lesson) error
	GetLesson(id string) (*models.Lesson, error)
	ListLessons(activeOnly bool) ([]models.Lesson, error)
	DeleteLesson(id string) error
	CountLessons(activeOnly bool) (int, error)

	// Ответы на упражнения
	SaveExerciseResponse(r *models.ExerciseResponse) error
	GetExerciseResponses(userID, lessonID string) ([]models.ExerciseResponse, error)
	ListResponsesByLesson(lessonID string) ([]models.ExerciseResponse, error)
	ReviewExerciseResponse(id, comment, reviewer string) (*models.ExerciseResponse, error)
	ListPendingResponses(limit int) ([]models.ExerciseResponse, error)
	CountResponses() (total, pending int, err error)
	DeleteExerciseResponses(userID, lessonID string) error
	ListResponsesByUser(userID string) ([]models.ExerciseResponse, error)

	// Прогресс по уроку
	SaveLessonProgress(p *models.LessonProgress) error
	GetLessonProgress(userID, lessonID string) (*models.LessonProgress, error)
	ListProgressByLesson(lessonID string) ([]models.LessonProgress, error)
	ListAllProgress() ([]models.LessonProgress, error)
	DeleteLessonProgress(userID, lessonID string) error
	ListProgressByUser(userID string) ([]models.LessonProgress, error)

	// Тесты
	SaveQuizAttempt(a *models.QuizAttempt) error
	ListQuizAttempts(userID, lessonID string) ([]models.QuizAttempt, error)
	ListQuizAttemptsByLesson(lessonID string) ([]models.QuizAttempt, error)
	ListQuizAttemptsByUser(userID string) ([]models.QuizAttempt, error)

	// Челленджи
	SaveChallengeProgress(p *models.ChallengeProgress) error
	GetActiveChallengeProgress(userID, lessonID, challengeID string) (*models.ChallengeProgress, error)
	ListChallengeProgress(userID, lessonID, challengeID string) ([]models.ChallengeProgress, error)
	ListChallengeProgressByLesson(lessonID string) ([]models.ChallengeProgress, error)
	CountCompletedChallenges(userID, lessonID string) (int, error)
	ListChallengeProgressByUser(userID string) ([]models.ChallengeProgress, error)

	// Время активности и просмотр видео
	AddTimeActivity(userID, lessonID string, minutes, points int) (models.ActivityTotals, error)
	GetTimeActivity(userID, lessonID string) (models.ActivityTotals, error)
	AddVideoWatch(userID, lessonID, fileID string, minutes, pointsPerMinute int) (models.ActivityTotals, error)
	SumPoints() (models.PointsSummary, error)
	SumUserActivity(userID string) (timeTotals, videoTotals models.ActivityTotals, err error)

	Close() error
}

// SQLiteStorage реализует Storage на SQLite
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage открывает базу и создаёт схему
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		module TEXT NOT NULL DEFAULT '',
		level INTEGER NOT NULL DEFAULT 1,
		lesson_order INTEGER NOT NULL DEFAULT 0,
		points_required INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		analytics_enabled INTEGER NOT NULL DEFAULT 1,
		theory TEXT NOT NULL DEFAULT '[]',
		exercises TEXT NOT NULL DEFAULT '[]',
		challenge TEXT,
		quiz TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exercise_responses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		response_text TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		reviewed INTEGER NOT NULL DEFAULT 0,
		admin_comment TEXT NOT NULL DEFAULT '',
		reviewed_at TEXT,
		reviewed_by TEXT NOT NULL DEFAULT '',
		UNIQUE (user_id, lesson_id, exercise_id)
	);

	CREATE TABLE IF NOT EXISTS lesson_progress (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		exercises_completed INTEGER NOT NULL DEFAULT 0,
		theory_completed INTEGER NOT NULL DEFAULT 0,
		challenge_completed INTEGER NOT NULL DEFAULT 0,
		quiz_completed INTEGER NOT NULL DEFAULT 0,
		quiz_passed INTEGER NOT NULL DEFAULT 0,
		completion_percentage REAL NOT NULL DEFAULT 0,
		is_completed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		last_activity_at TEXT NOT NULL,
		UNIQUE (user_id, lesson_id)
	);

	CREATE TABLE IF NOT EXISTS quiz_attempts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		answers TEXT NOT NULL DEFAULT '{}',
		points_earned INTEGER NOT NULL DEFAULT 0,
		attempted_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS challenge_progress (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		challenge_id TEXT NOT NULL,
		current_day INTEGER NOT NULL DEFAULT 1,
		completed_days TEXT NOT NULL DEFAULT '[]',
		daily_notes TEXT NOT NULL DEFAULT '[]',
		is_completed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		points_earned INTEGER NOT NULL DEFAULT 0,
		attempt_number INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS time_activity (
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		total_points INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		last_activity_at TEXT NOT NULL,
		PRIMARY KEY (user_id, lesson_id)
	);

	CREATE TABLE IF NOT EXISTS video_watch_time (
		user_id TEXT NOT NULL,
		file_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		total_points INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		last_activity_at TEXT NOT NULL,
		PRIMARY KEY (user_id, file_id)
	);

	CREATE INDEX IF NOT EXISTS idx_responses_lesson ON exercise_responses(lesson_id);
	CREATE INDEX IF NOT EXISTS idx_responses_reviewed ON exercise_responses(reviewed, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_progress_lesson ON lesson_progress(lesson_id);
	CREATE INDEX IF NOT EXISTS idx_quiz_user_lesson ON quiz_attempts(user_id, lesson_id);
	CREATE INDEX IF NOT EXISTS idx_challenge_user_lesson ON challenge_progress(user_id, lesson_id, challenge_id);
	CREATE INDEX IF NOT EXISTS idx_video_lesson ON video_watch_time(lesson_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Время хранится текстом фиксированной ширины в UTC,
// поэтому строковая сортировка совпадает с хронологической
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
