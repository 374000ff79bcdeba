// Package progress ведёт прогресс студентов по урокам: ответы на упражнения,
// попытки тестов и челленджей, время активности и начисление баллов.
package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"numerom/internal/config"
	"numerom/internal/models"
	"numerom/internal/storage"
)

// ErrInvalidInput помечает ошибки проверки входных данных
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Service вычисляет и сохраняет прогресс поверх хранилища
type Service struct {
	store   storage.Storage
	scoring config.Scoring
	now     func() time.Time

	// попытки челленджа меняются чтением и перезаписью
	challengeLocks *keyedMutex
}

// NewService создаёт сервис прогресса
func NewService(store storage.Storage, scoring config.Scoring) *Service {
	return &Service{
		store:   store,
		scoring: scoring,
		now:     func() time.Time { return time.Now().UTC() },

		challengeLocks: newKeyedMutex(),
	}
}

// Recalculate пересчитывает прогресс студента по уроку. Каждый присутствующий
// раздел (теория, упражнения, челлендж, тест) даёт равную долю процента.
func (s *Service) Recalculate(userID, lessonID string) (*models.LessonProgress, error) {
	lesson, err := s.store.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.GetExerciseResponses(userID, lessonID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(lesson.Exercises))
	for _, ex := range lesson.Exercises {
		known[ex.ID] = true
	}
	answered := 0
	for _, r := range responses {
		if known[r.ExerciseID] {
			answered++
		}
	}

	challengeCompleted := false
	if lesson.Challenge != nil {
		n, err := s.store.CountCompletedChallenges(userID, lessonID)
		if err != nil {
			return nil, err
		}
		challengeCompleted = n > 0
	}

	quizPassed := false
	if lesson.Quiz != nil {
		attempts, err := s.store.ListQuizAttempts(userID, lessonID)
		if err != nil {
			return nil, err
		}
		for _, a := range attempts {
			if a.Passed {
				quizPassed = true
				break
			}
		}
	}

	var total, completed int
	if len(lesson.Theory) > 0 {
		// теория засчитывается по умолчанию
		total++
		completed++
	}
	if len(lesson.Exercises) > 0 {
		total++
		if answered >= len(lesson.Exercises) {
			completed++
		}
	}
	if lesson.Challenge != nil {
		total++
		if challengeCompleted {
			completed++
		}
	}
	if lesson.Quiz != nil {
		total++
		if quizPassed {
			completed++
		}
	}

	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(completed)/float64(total)*100*100) / 100
	}

	now := s.now()
	p := &models.LessonProgress{
		UserID:               userID,
		LessonID:             lessonID,
		ExercisesCompleted:   answered,
		TheoryCompleted:      true,
		ChallengeCompleted:   challengeCompleted,
		QuizCompleted:        quizPassed,
		QuizPassed:           quizPassed,
		CompletionPercentage: percentage,
		IsCompleted:          percentage >= 100,
		StartedAt:            now,
		LastActivityAt:       now,
	}

	existing, err := s.store.GetLessonProgress(userID, lessonID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		p.ID = existing.ID
		p.StartedAt = existing.StartedAt
		if existing.IsCompleted {
			p.CompletedAt = existing.CompletedAt
		}
	}
	if p.IsCompleted && p.CompletedAt == nil {
		p.CompletedAt = &now
	}

	if err := s.store.SaveLessonProgress(p); err != nil {
		return nil, err
	}

	slog.Debug("lesson progress updated",
		"user_id", userID,
		"lesson_id", lessonID,
		"completion", percentage,
		"sections", fmt.Sprintf("%d/%d", completed, total),
	)
	return p, nil
}

// SubmitExerciseResponse сохраняет ответ на упражнение и пересчитывает прогресс
func (s *Service) SubmitExerciseResponse(userID, lessonID, exerciseID, text string) (*models.ExerciseResponse, *models.LessonProgress, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, invalid("response text is empty")
	}

	lesson, err := s.store.GetLesson(lessonID)
	if err != nil {
		return nil, nil, err
	}
	if !hasExercise(lesson, exerciseID) {
		return nil, nil, invalid("lesson %s has no exercise %q", lessonID, exerciseID)
	}

	r := &models.ExerciseResponse{
		UserID:       userID,
		LessonID:     lessonID,
		ExerciseID:   exerciseID,
		ResponseText: text,
		SubmittedAt:  s.now(),
	}
	if err := s.store.SaveExerciseResponse(r); err != nil {
		return nil, nil, err
	}

	p, err := s.Recalculate(userID, lessonID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("exercise response saved", "user_id", userID, "lesson_id", lessonID, "exercise_id", exerciseID)
	return r, p, nil
}

// ReviewResponse сохраняет комментарий администратора к ответу студента
func (s *Service) ReviewResponse(responseID, comment, reviewer string) (*models.ExerciseResponse, error) {
	r, err := s.store.ReviewExerciseResponse(responseID, strings.TrimSpace(comment), reviewer)
	if err != nil {
		return nil, err
	}
	slog.Info("response reviewed", "response_id", responseID, "reviewer", reviewer)
	return r, nil
}

// ResetLesson удаляет ответы и прогресс студента по уроку.
// Попытки тестов, челленджей и время активности сохраняются.
func (s *Service) ResetLesson(userID, lessonID string) error {
	if err := s.store.DeleteExerciseResponses(userID, lessonID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if err := s.store.DeleteLessonProgress(userID, lessonID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	slog.Info("lesson progress reset", "user_id", userID, "lesson_id", lessonID)
	return nil
}

// TrackTime учитывает минуты активности в уроке. Доставка «хотя бы один раз»:
// повторные пульсы суммируются без дедупликации.
func (s *Service) TrackTime(userID, lessonID string, minutes int) (models.ActivityTotals, error) {
	if minutes <= 0 {
		return models.ActivityTotals{}, invalid("minutes must be positive, got %d", minutes)
	}
	if _, err := s.store.GetLesson(lessonID); err != nil {
		return models.ActivityTotals{}, err
	}
	return s.store.AddTimeActivity(userID, lessonID, minutes, minutes*s.scoring.TimePointsPerMinute)
}

// TrackVideo учитывает минуты просмотра видеофайла урока
func (s *Service) TrackVideo(userID, lessonID, fileID string, minutes int) (models.ActivityTotals, error) {
	if minutes <= 0 {
		return models.ActivityTotals{}, invalid("minutes must be positive, got %d", minutes)
	}
	if strings.TrimSpace(fileID) == "" {
		return models.ActivityTotals{}, invalid("file_id is required")
	}
	if _, err := s.store.GetLesson(lessonID); err != nil {
		return models.ActivityTotals{}, err
	}
	return s.store.AddVideoWatch(userID, lessonID, fileID, minutes, s.scoring.VideoPointsPerMinute)
}

// TimeActivity возвращает накопленное время студента в уроке
func (s *Service) TimeActivity(userID, lessonID string) (models.ActivityTotals, error) {
	return s.store.GetTimeActivity(userID, lessonID)
}

func hasExercise(lesson *models.Lesson, exerciseID string) bool {
	for _, ex := range lesson.Exercises {
		if ex.ID == exerciseID {
			return true
		}
	}
	return false
}
