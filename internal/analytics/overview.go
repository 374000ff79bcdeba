package analytics

import (
	"sort"
	"time"

	"numerom/internal/models"
)

// OverviewInput содержит данные для общей аналитики
type OverviewInput struct {
	Lessons        []models.Lesson
	ActiveLessons  int
	TotalResponses int
	PendingCount   int
	Pending        []models.ExerciseResponse
	Points         models.PointsSummary
	Progress       []models.LessonProgress
	Now            time.Time
}

// TopLesson описывает урок из рейтинга популярности
type TopLesson struct {
	LessonID      string  `json:"lesson_id"`
	LessonTitle   string  `json:"lesson_title"`
	StudentsCount int     `json:"students_count"`
	AvgCompletion float64 `json:"avg_completion"`
}

// PendingReview описывает непроверенный ответ с названиями урока и упражнения
type PendingReview struct {
	ResponseID    string    `json:"response_id"`
	UserID        string    `json:"user_id"`
	LessonID      string    `json:"lesson_id"`
	LessonTitle   string    `json:"lesson_title"`
	ExerciseID    string    `json:"exercise_id"`
	ExerciseTitle string    `json:"exercise_title"`
	SubmittedAt   time.Time `json:"submitted_at"`
	ResponseText  string    `json:"response_text"`
}

// Overview содержит общую аналитику системы
type Overview struct {
	TotalLessons          int                  `json:"total_lessons"`
	TotalStudents         int                  `json:"total_students"`
	TotalResponses        int                  `json:"total_responses"`
	PendingReviews        int                  `json:"pending_reviews"`
	RecentActivity7Days   int                  `json:"recent_activity_7days"`
	TopLessons            []TopLesson          `json:"top_lessons"`
	Points                models.PointsSummary `json:"points"`
	ActiveStudents        int                  `json:"active_students"`
	PendingReviewsDetails []PendingReview      `json:"pending_reviews_details"`
}

// BuildOverview строит общую аналитику. Студентами считаются все
// пользователи с прогрессом или ответами, активными считаются имеющие запись прогресса.
func BuildOverview(in OverviewInput) *Overview {
	o := &Overview{
		TotalLessons:          in.ActiveLessons,
		TotalResponses:        in.TotalResponses,
		PendingReviews:        in.PendingCount,
		Points:                in.Points,
		TopLessons:            make([]TopLesson, 0),
		PendingReviewsDetails: make([]PendingReview, 0, len(in.Pending)),
	}

	lessons := make(map[string]*models.Lesson, len(in.Lessons))
	for i := range in.Lessons {
		lessons[in.Lessons[i].ID] = &in.Lessons[i]
	}

	students := map[string]bool{}
	active := map[string]bool{}
	cutoff := in.Now.Add(-recentWindow)

	type lessonAgg struct {
		count int
		sum   float64
	}
	byLesson := map[string]*lessonAgg{}

	for _, p := range in.Progress {
		students[p.UserID] = true
		active[p.UserID] = true
		if !p.LastActivityAt.Before(cutoff) {
			o.RecentActivity7Days++
		}
		agg, ok := byLesson[p.LessonID]
		if !ok {
			agg = &lessonAgg{}
			byLesson[p.LessonID] = agg
		}
		agg.count++
		agg.sum += p.CompletionPercentage
	}
	for _, r := range in.Pending {
		students[r.UserID] = true
	}
	o.TotalStudents = len(students)
	o.ActiveStudents = len(active)

	for id, agg := range byLesson {
		o.TopLessons = append(o.TopLessons, TopLesson{
			LessonID:      id,
			LessonTitle:   lessonTitle(lessons, id),
			StudentsCount: agg.count,
			AvgCompletion: average(agg.sum, agg.count),
		})
	}
	sort.Slice(o.TopLessons, func(i, j int) bool {
		a, b := o.TopLessons[i], o.TopLessons[j]
		if a.StudentsCount != b.StudentsCount {
			return a.StudentsCount > b.StudentsCount
		}
		return a.LessonID < b.LessonID
	})
	o.TopLessons = truncate(o.TopLessons, topLessonsSize)

	for _, r := range truncate(in.Pending, PendingPreviewLimit) {
		o.PendingReviewsDetails = append(o.PendingReviewsDetails, PendingReview{
			ResponseID:    r.ID,
			UserID:        r.UserID,
			LessonID:      r.LessonID,
			LessonTitle:   lessonTitle(lessons, r.LessonID),
			ExerciseID:    r.ExerciseID,
			ExerciseTitle: exerciseTitle(lessons[r.LessonID], r.ExerciseID),
			SubmittedAt:   r.SubmittedAt,
			ResponseText:  r.ResponseText,
		})
	}

	return o
}

func lessonTitle(lessons map[string]*models.Lesson, id string) string {
	if l, ok := lessons[id]; ok {
		return l.Title
	}
	return unknownLesson
}

func exerciseTitle(lesson *models.Lesson, exerciseID string) string {
	if lesson != nil {
		for _, ex := range lesson.Exercises {
			if ex.ID == exerciseID && ex.Title != "" {
				return ex.Title
			}
		}
	}
	return "Упражнение " + exerciseID
}
