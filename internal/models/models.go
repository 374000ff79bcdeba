package models

import "time"

// Типы упражнений
const (
	ExerciseReflection = "reflection"
	ExercisePractice   = "practice"
	ExerciseAnalysis   = "analysis"
	ExerciseCreative   = "creative"
)

// Lesson представляет урок с разделами теории, упражнений, челленджа и теста
type Lesson struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Module           string        `json:"module"`
	Level            int           `json:"level"`
	Order            int           `json:"order"`
	PointsRequired   int           `json:"points_required"`
	IsActive         bool          `json:"is_active"`
	AnalyticsEnabled bool          `json:"analytics_enabled"`
	Theory           []TheoryBlock `json:"theory"`
	Exercises        []Exercise    `json:"exercises"`
	Challenge        *Challenge    `json:"challenge,omitempty"`
	Quiz             *Quiz         `json:"quiz,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TheoryBlock представляет блок теоретического материала
type TheoryBlock struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Exercise представляет упражнение для студента
type Exercise struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
	ExpectedOutcome string `json:"expected_outcome"`
	Type            string `json:"type"` // reflection, practice, analysis, creative
	Order           int    `json:"order"`
}

// Challenge представляет многодневный челлендж
type Challenge struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DurationDays int       `json:"duration_days"`
	DailyTasks   []DayTask `json:"daily_tasks"`
}

// DayTask представляет один день челленджа
type DayTask struct {
	Day         int      `json:"day"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tasks       []string `json:"tasks"`
	Completed   bool     `json:"completed"`
}

// Quiz представляет тест с вариантами ответов
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Questions        []Question `json:"questions"`
	PassingScore     int        `json:"passing_score"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
}

// Question представляет вопрос теста
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Type          string   `json:"type"` // multiple_choice
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Points        int      `json:"points"`
}

// ExerciseResponse представляет ответ студента на упражнение
type ExerciseResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	LessonID     string     `json:"lesson_id"`
	ExerciseID   string     `json:"exercise_id"`
	ResponseText string     `json:"response_text"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Reviewed     bool       `json:"reviewed"`
	AdminComment string     `json:"admin_comment,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
}

// LessonProgress представляет прогресс студента по уроку
type LessonProgress struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	LessonID             string     `json:"lesson_id"`
	ExercisesCompleted   int        `json:"exercises_completed"`
	TheoryCompleted      bool       `json:"theory_completed"`
	ChallengeCompleted   bool       `json:"challenge_completed"`
	QuizCompleted        bool       `json:"quiz_completed"`
	QuizPassed           bool       `json:"quiz_passed"`
	CompletionPercentage float64    `json:"completion_percentage"`
	IsCompleted          bool       `json:"is_completed"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	LastActivityAt       time.Time  `json:"last_activity_at"`
}

// QuizAttempt представляет одну попытку прохождения теста
type QuizAttempt struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	LessonID     string            `json:"lesson_id"`
	QuizID       string            `json:"quiz_id"`
	Score        int               `json:"score"`
	Passed       bool              `json:"passed"`
	Answers      map[string]string `json:"answers,omitempty"`
	PointsEarned int               `json:"points_earned"`
	AttemptedAt  time.Time         `json:"attempted_at"`
}

// DailyNote представляет заметку студента за день челленджа
type DailyNote struct {
	Day         int       `json:"day"`
	Note        string    `json:"note"`
	CompletedAt time.Time `json:"completed_at"`
}

// ChallengeProgress представляет одно прохождение челленджа
type ChallengeProgress struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	LessonID      string      `json:"lesson_id"`
	ChallengeID   string      `json:"challenge_id"`
	CurrentDay    int         `json:"current_day"`
	CompletedDays []int       `json:"completed_days"`
	DailyNotes    []DailyNote `json:"daily_notes"`
	IsCompleted   bool        `json:"is_completed"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	PointsEarned  int         `json:"points_earned"`
	AttemptNumber int         `json:"attempt_number"`
}

// ActivityTotals содержит накопленное время и баллы за активность
type ActivityTotals struct {
	TotalMinutes   int        `json:"total_minutes"`
	TotalPoints    int        `json:"total_points"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// PointsSummary содержит сумму выданных баллов по источникам
type PointsSummary struct {
	Total      int `json:"total"`
	Challenges int `json:"challenges"`
	Quizzes    int `json:"quizzes"`
	Time       int `json:"time"`
	Videos     int `json:"videos"`
}
