// Package analytics агрегирует сохранённые записи студентов в отчёты
// для администратора. Функции пакета не обращаются к хранилищу.
package analytics

import (
	"math"
	"sort"
	"time"

	"numerom/internal/models"
)

const (
	leaderboardSize = 10
	topLessonsSize  = 5
	recentWindow    = 7 * 24 * time.Hour

	// PendingPreviewLimit ограничивает список непроверенных ответов в обзоре
	PendingPreviewLimit = 15

	unknownLesson   = "Неизвестный урок"
	unknownExercise = "Неизвестное упражнение"
)

// LessonInput содержит все записи одного урока
type LessonInput struct {
	Lesson       *models.Lesson
	Responses    []models.ExerciseResponse
	Progress     []models.LessonProgress
	QuizAttempts []models.QuizAttempt
	Challenges   []models.ChallengeProgress
}

// LessonStatistics содержит сводные показатели урока
type LessonStatistics struct {
	TotalStudents           int     `json:"total_students"`
	CompletedStudents       int     `json:"completed_students"`
	AvgCompletionPercentage float64 `json:"avg_completion_percentage"`
	TotalExerciseResponses  int     `json:"total_exercise_responses"`
	ReviewedResponses       int     `json:"reviewed_responses"`
	PendingReview           int     `json:"pending_review"`
	TotalQuizAttempts       int     `json:"total_quiz_attempts"`
	PassedQuizzes           int     `json:"passed_quizzes"`
	AvgQuizScore            float64 `json:"avg_quiz_score"`
	TotalQuizPoints         int     `json:"total_quiz_points"`
	AvgQuizPoints           float64 `json:"avg_quiz_points"`
	UniqueChallengeUsers    int     `json:"unique_challenge_users"`
	TotalChallengeAttempts  int     `json:"total_challenge_attempts"`
	CompletedChallenges     int     `json:"completed_challenges"`
	TotalChallengeNotes     int     `json:"total_challenge_notes"`
	TotalPointsEarned       int     `json:"total_points_earned"`
	AvgPointsPerAttempt     float64 `json:"avg_points_per_attempt"`
}

// QuizLeader описывает строку рейтинга по тестам
type QuizLeader struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	Attempts    int    `json:"attempts"`
	Passed      int    `json:"passed"`
	BestScore   int    `json:"best_score"`
}

// ChallengeLeader описывает строку рейтинга по челленджам
type ChallengeLeader struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	Attempts    int    `json:"attempts"`
	Completed   int    `json:"completed"`
}

// TimelinePoint содержит число начатых и завершённых уроков за день
type TimelinePoint struct {
	Date      string `json:"date"`
	Started   int    `json:"started"`
	Completed int    `json:"completed"`
}

// StudentRow содержит прогресс одного студента по уроку
type StudentRow struct {
	UserID               string    `json:"user_id"`
	CompletionPercentage float64   `json:"completion_percentage"`
	ExercisesCompleted   int       `json:"exercises_completed"`
	QuizCompleted        bool      `json:"quiz_completed"`
	QuizPassed           bool      `json:"quiz_passed"`
	LastActivityAt       time.Time `json:"last_activity_at"`
}

// LessonReport содержит аналитику по уроку
type LessonReport struct {
	LessonID             string            `json:"lesson_id"`
	LessonTitle          string            `json:"lesson_title"`
	Statistics           LessonStatistics  `json:"statistics"`
	QuizLeaderboard      []QuizLeader      `json:"quiz_leaderboard"`
	ChallengeLeaderboard []ChallengeLeader `json:"challenge_leaderboard"`
	ProgressTimeline     []TimelinePoint   `json:"progress_timeline"`
	StudentsData         []StudentRow      `json:"students_data"`
}

// BuildLessonReport строит аналитику по уроку
func BuildLessonReport(in LessonInput) *LessonReport {
	r := &LessonReport{
		LessonID:             in.Lesson.ID,
		LessonTitle:          in.Lesson.Title,
		QuizLeaderboard:      make([]QuizLeader, 0),
		ChallengeLeaderboard: make([]ChallengeLeader, 0),
		ProgressTimeline:     make([]TimelinePoint, 0),
		StudentsData:         make([]StudentRow, 0, len(in.Progress)),
	}
	st := &r.Statistics

	students := map[string]bool{}
	var completionSum float64
	timeline := map[string]*TimelinePoint{}
	for _, p := range in.Progress {
		students[p.UserID] = true
		completionSum += p.CompletionPercentage
		if p.IsCompleted {
			st.CompletedStudents++
		}

		if !p.StartedAt.IsZero() {
			key := p.StartedAt.UTC().Format("2006-01-02")
			tp, ok := timeline[key]
			if !ok {
				tp = &TimelinePoint{Date: key}
				timeline[key] = tp
			}
			tp.Started++
			if p.IsCompleted {
				tp.Completed++
			}
		}

		r.StudentsData = append(r.StudentsData, StudentRow{
			UserID:               p.UserID,
			CompletionPercentage: p.CompletionPercentage,
			ExercisesCompleted:   p.ExercisesCompleted,
			QuizCompleted:        p.QuizCompleted,
			QuizPassed:           p.QuizPassed,
			LastActivityAt:       p.LastActivityAt,
		})
	}
	st.TotalStudents = len(students)
	st.AvgCompletionPercentage = average(completionSum, len(in.Progress))

	for _, tp := range timeline {
		r.ProgressTimeline = append(r.ProgressTimeline, *tp)
	}
	sort.Slice(r.ProgressTimeline, func(i, j int) bool {
		return r.ProgressTimeline[i].Date < r.ProgressTimeline[j].Date
	})

	st.TotalExerciseResponses = len(in.Responses)
	for _, resp := range in.Responses {
		if resp.Reviewed {
			st.ReviewedResponses++
		}
	}
	st.PendingReview = st.TotalExerciseResponses - st.ReviewedResponses

	quizLeaders := map[string]*QuizLeader{}
	var scoreSum float64
	for _, a := range in.QuizAttempts {
		st.TotalQuizAttempts++
		st.TotalQuizPoints += a.PointsEarned
		scoreSum += float64(a.Score)

		l, ok := quizLeaders[a.UserID]
		if !ok {
			l = &QuizLeader{UserID: a.UserID}
			quizLeaders[a.UserID] = l
		}
		l.TotalPoints += a.PointsEarned
		l.Attempts++
		if a.Passed {
			st.PassedQuizzes++
			l.Passed++
		}
		if a.Score > l.BestScore {
			l.BestScore = a.Score
		}
	}
	st.AvgQuizScore = average(scoreSum, st.TotalQuizAttempts)
	st.AvgQuizPoints = average(float64(st.TotalQuizPoints), st.TotalQuizAttempts)
	for _, l := range quizLeaders {
		r.QuizLeaderboard = append(r.QuizLeaderboard, *l)
	}
	sort.Slice(r.QuizLeaderboard, func(i, j int) bool {
		a, b := r.QuizLeaderboard[i], r.QuizLeaderboard[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.UserID < b.UserID
	})
	r.QuizLeaderboard = truncate(r.QuizLeaderboard, leaderboardSize)

	challengeLeaders := map[string]*ChallengeLeader{}
	for _, c := range in.Challenges {
		st.TotalChallengeAttempts++
		st.TotalChallengeNotes += len(c.DailyNotes)
		st.TotalPointsEarned += c.PointsEarned

		l, ok := challengeLeaders[c.UserID]
		if !ok {
			l = &ChallengeLeader{UserID: c.UserID}
			challengeLeaders[c.UserID] = l
		}
		l.TotalPoints += c.PointsEarned
		l.Attempts++
		if c.IsCompleted {
			st.CompletedChallenges++
			l.Completed++
		}
	}
	st.UniqueChallengeUsers = len(challengeLeaders)
	st.AvgPointsPerAttempt = average(float64(st.TotalPointsEarned), st.TotalChallengeAttempts)
	for _, l := range challengeLeaders {
		r.ChallengeLeaderboard = append(r.ChallengeLeaderboard, *l)
	}
	sort.Slice(r.ChallengeLeaderboard, func(i, j int) bool {
		a, b := r.ChallengeLeaderboard[i], r.ChallengeLeaderboard[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.UserID < b.UserID
	})
	r.ChallengeLeaderboard = truncate(r.ChallengeLeaderboard, leaderboardSize)

	return r
}

// round2 округляет до двух знаков после запятой
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
