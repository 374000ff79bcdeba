package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numerom/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLesson(id string) *models.Lesson {
	return &models.Lesson{
		ID:               id,
		Title:            "Цифра 1",
		Module:           "Основы",
		Level:            1,
		Order:            1,
		IsActive:         true,
		AnalyticsEnabled: true,
		Theory:           []models.TheoryBlock{{ID: "t1", Title: "Введение", Content: "Текст", Order: 0}},
		Exercises: []models.Exercise{
			{ID: "e1", Title: "Дыхание", Instructions: "Дыши", Type: models.ExercisePractice},
			{ID: "e2", Title: "Дневник", Instructions: "Пиши", Type: models.ExerciseReflection, Order: 1},
		},
		Challenge: &models.Challenge{ID: "c1", Title: "Неделя", DurationDays: 2,
			DailyTasks: []models.DayTask{{Day: 1, Title: "Утро", Tasks: []string{"а"}}}},
		Quiz: &models.Quiz{ID: "q1", Title: "Тест", PassingScore: 70,
			Questions: []models.Question{{ID: "q_1", Question: "?", Options: []string{"да", "нет"}, CorrectAnswer: "да", Points: 1}}},
	}
}

func TestTimeFormatSortsChronologically(t *testing.T) {
	a := time.Date(2024, 5, 1, 10, 0, 0, 100000000, time.UTC)
	b := a.Add(20 * time.Millisecond)
	assert.Less(t, formatTime(a), formatTime(b))
	assert.True(t, a.Equal(parseTime(formatTime(a))))
	assert.True(t, parseTime("garbage").IsZero())
}

func TestLessons_CRUD(t *testing.T) {
	s := newTestStorage(t)

	lesson := sampleLesson("l1")
	require.NoError(t, s.SaveLesson(lesson))
	assert.False(t, lesson.CreatedAt.IsZero())

	got, err := s.GetLesson("l1")
	require.NoError(t, err)
	assert.Equal(t, lesson.Title, got.Title)
	assert.Equal(t, lesson.Theory, got.Theory)
	assert.Equal(t, lesson.Exercises, got.Exercises)
	assert.Equal(t, lesson.Challenge, got.Challenge)
	assert.Equal(t, lesson.Quiz, got.Quiz)
	assert.True(t, got.IsActive)

	hidden := &models.Lesson{ID: "l2", Title: "Черновик", Order: 2}
	require.NoError(t, s.SaveLesson(hidden))

	got2, err := s.GetLesson("l2")
	require.NoError(t, err)
	assert.NotNil(t, got2.Theory)
	assert.Empty(t, got2.Theory)
	assert.Nil(t, got2.Quiz)

	all, err := s.ListLessons(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "l1", all[0].ID)

	active, err := s.ListLessons(true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	n, err := s.CountLessons(true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetLesson("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLessons_UpdateKeepsCreatedAt(t *testing.T) {
	s := newTestStorage(t)

	lesson := sampleLesson("l1")
	require.NoError(t, s.SaveLesson(lesson))
	created := lesson.CreatedAt

	lesson.Title = "Новое название"
	lesson.Quiz = nil
	require.NoError(t, s.SaveLesson(lesson))

	got, err := s.GetLesson("l1")
	require.NoError(t, err)
	assert.Equal(t, "Новое название", got.Title)
	assert.Nil(t, got.Quiz)
	assert.WithinDuration(t, created, got.CreatedAt, time.Microsecond)
}

func TestDeleteLesson_Cascades(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveLesson(sampleLesson("l1")))
	require.NoError(t, s.SaveLesson(sampleLesson("l2")))

	for _, lessonID := range []string{"l1", "l2"} {
		require.NoError(t, s.SaveExerciseResponse(&models.ExerciseResponse{UserID: "u1", LessonID: lessonID, ExerciseID: "e1", ResponseText: "ok"}))
		require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{UserID: "u1", LessonID: lessonID, QuizID: "q1", Score: 80}))
		_, err := s.AddTimeActivity("u1", lessonID, 5, 5)
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteLesson("l1"))
	assert.ErrorIs(t, s.DeleteLesson("l1"), ErrNotFound)

	responses, err := s.GetExerciseResponses("u1", "l1")
	require.NoError(t, err)
	assert.Empty(t, responses)

	attempts, err := s.ListQuizAttempts("u1", "l1")
	require.NoError(t, err)
	assert.Empty(t, attempts)

	// записи другого урока остаются
	responses, err = s.GetExerciseResponses("u1", "l2")
	require.NoError(t, err)
	assert.Len(t, responses, 1)

	totals, err := s.GetTimeActivity("u1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 5, totals.TotalMinutes)
}

func TestExerciseResponses_UpsertAndReview(t *testing.T) {
	s := newTestStorage(t)

	first := &models.ExerciseResponse{UserID: "u1", LessonID: "l1", ExerciseID: "e1", ResponseText: "первый"}
	require.NoError(t, s.SaveExerciseResponse(first))
	require.NotEmpty(t, first.ID)

	reviewed, err := s.ReviewExerciseResponse(first.ID, "Хорошо", "admin")
	require.NoError(t, err)
	assert.True(t, reviewed.Reviewed)
	assert.Equal(t, "Хорошо", reviewed.AdminComment)
	assert.Equal(t, "admin", reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)

	again := &models.ExerciseResponse{UserID: "u1", LessonID: "l1", ExerciseID: "e1", ResponseText: "второй"}
	require.NoError(t, s.SaveExerciseResponse(again))
	assert.Equal(t, first.ID, again.ID)

	responses, err := s.GetExerciseResponses("u1", "l1")
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "второй", responses[0].ResponseText)
	// повторная отправка не сбрасывает отметку о проверке
	assert.True(t, responses[0].Reviewed)

	_, err = s.ReviewExerciseResponse("missing", "", "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExerciseResponses_Pending(t *testing.T) {
	s := newTestStorage(t)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, ex := range []string{"e1", "e2", "e3"} {
		require.NoError(t, s.SaveExerciseResponse(&models.ExerciseResponse{
			UserID: "u1", LessonID: "l1", ExerciseID: ex, ResponseText: ex,
			SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	responses, err := s.ListResponsesByLesson("l1")
	require.NoError(t, err)
	require.Len(t, responses, 3)
	_, err = s.ReviewExerciseResponse(responses[0].ID, "", "admin")
	require.NoError(t, err)

	pending, err := s.ListPendingResponses(15)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e2", pending[0].ExerciseID)
	assert.Equal(t, "e1", pending[1].ExerciseID)

	limited, err := s.ListPendingResponses(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	total, pendingCount, err := s.CountResponses()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, pendingCount)

	require.NoError(t, s.DeleteExerciseResponses("u1", "l1"))
	total, _, err = s.CountResponses()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLessonProgress_Upsert(t *testing.T) {
	s := newTestStorage(t)

	started := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	p := &models.LessonProgress{
		UserID: "u1", LessonID: "l1", ExercisesCompleted: 1,
		CompletionPercentage: 50, StartedAt: started, LastActivityAt: started,
	}
	require.NoError(t, s.SaveLessonProgress(p))
	firstID := p.ID

	done := started.Add(time.Hour)
	update := &models.LessonProgress{
		UserID: "u1", LessonID: "l1", ExercisesCompleted: 2, CompletionPercentage: 100,
		IsCompleted: true, StartedAt: done, CompletedAt: &done, LastActivityAt: done,
	}
	require.NoError(t, s.SaveLessonProgress(update))
	assert.Equal(t, firstID, update.ID)

	got, err := s.GetLessonProgress("u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ExercisesCompleted)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 100.0, got.CompletionPercentage)
	assert.True(t, started.Equal(got.StartedAt))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))

	list, err := s.ListProgressByLesson("l1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteLessonProgress("u1", "l1"))
	_, err = s.GetLessonProgress("u1", "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizAttempts(t *testing.T) {
	s := newTestStorage(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{UserID: "u1", LessonID: "l1", QuizID: "q1", Score: 40, AttemptedAt: base}))
	require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{
		UserID: "u1", LessonID: "l1", QuizID: "q1", Score: 90, Passed: true, PointsEarned: 110,
		Answers: map[string]string{"q_1": "да"}, AttemptedAt: base.Add(time.Minute),
	}))
	require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{UserID: "u2", LessonID: "l1", QuizID: "q1", Score: 10, AttemptedAt: base}))

	attempts, err := s.ListQuizAttempts("u1", "l1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 90, attempts[0].Score)
	assert.True(t, attempts[0].Passed)
	assert.Equal(t, map[string]string{"q_1": "да"}, attempts[0].Answers)

	byLesson, err := s.ListQuizAttemptsByLesson("l1")
	require.NoError(t, err)
	assert.Len(t, byLesson, 3)
}

func TestChallengeProgress(t *testing.T) {
	s := newTestStorage(t)

	p := &models.ChallengeProgress{
		UserID: "u1", LessonID: "l1", ChallengeID: "c1", CurrentDay: 2,
		CompletedDays: []int{1}, DailyNotes: []models.DailyNote{{Day: 1, Note: "заметка"}},
		StartedAt: time.Now().UTC(), PointsEarned: 10, AttemptNumber: 1,
	}
	require.NoError(t, s.SaveChallengeProgress(p))

	active, err := s.GetActiveChallengeProgress("u1", "l1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, active.CompletedDays)
	assert.Equal(t, "заметка", active.DailyNotes[0].Note)

	now := time.Now().UTC()
	active.IsCompleted = true
	active.CompletedAt = &now
	require.NoError(t, s.SaveChallengeProgress(active))

	_, err = s.GetActiveChallengeProgress("u1", "l1", "c1")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountCompletedChallenges("u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.SaveChallengeProgress(&models.ChallengeProgress{
		UserID: "u1", LessonID: "l1", ChallengeID: "c1", StartedAt: time.Now().UTC(), AttemptNumber: 2,
	}))

	history, err := s.ListChallengeProgress("u1", "l1", "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].AttemptNumber)
	assert.NotNil(t, history[0].CompletedDays)

	byLesson, err := s.ListChallengeProgressByLesson("l1")
	require.NoError(t, err)
	assert.Len(t, byLesson, 2)
}

func TestTimeAndVideoAccumulate(t *testing.T) {
	s := newTestStorage(t)

	empty, err := s.GetTimeActivity("u1", "l1")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalMinutes)
	assert.Nil(t, empty.StartedAt)

	_, err = s.AddTimeActivity("u1", "l1", 3, 3)
	require.NoError(t, err)
	totals, err := s.AddTimeActivity("u1", "l1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, totals.TotalMinutes)
	assert.Equal(t, 5, totals.TotalPoints)
	require.NotNil(t, totals.StartedAt)

	video, err := s.AddVideoWatch("u1", "l1", "f1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, video.TotalPoints)
	video, err = s.AddVideoWatch("u1", "l1", "f1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, video.TotalMinutes)
	assert.Equal(t, 30, video.TotalPoints)

	require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{UserID: "u1", LessonID: "l1", QuizID: "q1", Score: 50, PointsEarned: 50}))
	require.NoError(t, s.SaveChallengeProgress(&models.ChallengeProgress{
		UserID: "u1", LessonID: "l1", ChallengeID: "c1", StartedAt: time.Now().UTC(), PointsEarned: 10, AttemptNumber: 1,
	}))

	sum, err := s.SumPoints()
	require.NoError(t, err)
	assert.Equal(t, models.PointsSummary{Total: 95, Challenges: 10, Quizzes: 50, Time: 5, Videos: 30}, sum)
}

func TestUserQueries(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now().UTC()

	for _, user := range []string{"u1", "u2"} {
		require.NoError(t, s.SaveExerciseResponse(&models.ExerciseResponse{UserID: user, LessonID: "l1", ExerciseID: "e1", ResponseText: "ответ"}))
		require.NoError(t, s.SaveLessonProgress(&models.LessonProgress{UserID: user, LessonID: "l1", StartedAt: now, LastActivityAt: now}))
		require.NoError(t, s.SaveQuizAttempt(&models.QuizAttempt{UserID: user, LessonID: "l1", QuizID: "q1", PointsEarned: 40}))
		require.NoError(t, s.SaveChallengeProgress(&models.ChallengeProgress{
			UserID: user, LessonID: "l1", ChallengeID: "c1", StartedAt: now, AttemptNumber: 1,
		}))
	}
	require.NoError(t, s.SaveExerciseResponse(&models.ExerciseResponse{UserID: "u1", LessonID: "l2", ExerciseID: "e1", ResponseText: "ещё"}))

	responses, err := s.ListResponsesByUser("u1")
	require.NoError(t, err)
	assert.Len(t, responses, 2)

	progress, err := s.ListProgressByUser("u1")
	require.NoError(t, err)
	assert.Len(t, progress, 1)

	quizzes, err := s.ListQuizAttemptsByUser("u2")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "u2", quizzes[0].UserID)

	challenges, err := s.ListChallengeProgressByUser("u1")
	require.NoError(t, err)
	assert.Len(t, challenges, 1)

	none, err := s.ListResponsesByUser("nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSumUserActivity(t *testing.T) {
	s := newTestStorage(t)

	timeTotals, videoTotals, err := s.SumUserActivity("u1")
	require.NoError(t, err)
	assert.Zero(t, timeTotals.TotalMinutes)
	assert.Zero(t, videoTotals.TotalPoints)

	_, err = s.AddTimeActivity("u1", "l1", 3, 3)
	require.NoError(t, err)
	_, err = s.AddTimeActivity("u1", "l2", 4, 4)
	require.NoError(t, err)
	_, err = s.AddTimeActivity("u2", "l1", 9, 9)
	require.NoError(t, err)
	_, err = s.AddVideoWatch("u1", "l1", "f1", 2, 10)
	require.NoError(t, err)

	timeTotals, videoTotals, err = s.SumUserActivity("u1")
	require.NoError(t, err)
	assert.Equal(t, 7, timeTotals.TotalMinutes)
	assert.Equal(t, 7, timeTotals.TotalPoints)
	assert.Equal(t, 2, videoTotals.TotalMinutes)
	assert.Equal(t, 20, videoTotals.TotalPoints)
}
