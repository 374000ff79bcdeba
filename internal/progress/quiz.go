package progress

import (
	"log/slog"
	"math"

	"numerom/internal/models"
)

const defaultPassingScore = 70

// QuizSubmission описывает отправленную попытку теста. Если переданы ответы,
// результат вычисляется по ключу теста, иначе используется Score.
type QuizSubmission struct {
	QuizID  string            `json:"quiz_id"`
	Score   int               `json:"score"`
	Answers map[string]string `json:"answers,omitempty"`
}

// QuizSummary содержит историю попыток теста студента
type QuizSummary struct {
	LessonID      string               `json:"lesson_id"`
	Attempts      []models.QuizAttempt `json:"attempts"`
	BestScore     int                  `json:"best_score"`
	TotalAttempts int                  `json:"total_attempts"`
	TotalPoints   int                  `json:"total_points"`
}

// Grade возвращает процент набранных баллов по ответам вида «id вопроса → текст варианта».
// Вопросы без правильного ответа в ключе не учитываются.
func Grade(quiz *models.Quiz, answers map[string]string) int {
	var total, earned int
	for _, q := range quiz.Questions {
		if q.CorrectAnswer == "" {
			continue
		}
		points := q.Points
		if points <= 0 {
			points = 1
		}
		total += points
		if answers[q.ID] == q.CorrectAnswer {
			earned += points
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(earned) * 100 / float64(total)))
}

// QuizPoints начисляет баллы за попытку: процент × множитель и бонус за прохождение
func (s *Service) QuizPoints(score int, passed bool) int {
	points := score * s.scoring.PointsPerPercent
	if passed {
		points += s.scoring.QuizBonusPoints
	}
	return points
}

// SubmitQuizAttempt сохраняет попытку теста с начисленными баллами
func (s *Service) SubmitQuizAttempt(userID, lessonID string, sub QuizSubmission) (*models.QuizAttempt, *models.LessonProgress, error) {
	lesson, err := s.store.GetLesson(lessonID)
	if err != nil {
		return nil, nil, err
	}
	if lesson.Quiz == nil {
		return nil, nil, invalid("lesson %s has no quiz", lessonID)
	}

	score := sub.Score
	if len(sub.Answers) > 0 && len(lesson.Quiz.Questions) > 0 {
		score = Grade(lesson.Quiz, sub.Answers)
	}
	if score < 0 || score > 100 {
		return nil, nil, invalid("score must be within 0..100, got %d", score)
	}

	passing := lesson.Quiz.PassingScore
	if passing <= 0 {
		passing = defaultPassingScore
	}
	passed := score >= passing

	quizID := sub.QuizID
	if quizID == "" {
		quizID = lesson.Quiz.ID
	}

	attempt := &models.QuizAttempt{
		UserID:       userID,
		LessonID:     lessonID,
		QuizID:       quizID,
		Score:        score,
		Passed:       passed,
		Answers:      sub.Answers,
		PointsEarned: s.QuizPoints(score, passed),
		AttemptedAt:  s.now(),
	}
	if err := s.store.SaveQuizAttempt(attempt); err != nil {
		return nil, nil, err
	}

	p, err := s.Recalculate(userID, lessonID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("quiz attempt saved",
		"user_id", userID,
		"lesson_id", lessonID,
		"score", score,
		"points", attempt.PointsEarned,
	)
	return attempt, p, nil
}

// QuizSummary возвращает попытки студента, лучший результат и сумму баллов
func (s *Service) QuizSummary(userID, lessonID string) (*QuizSummary, error) {
	attempts, err := s.store.ListQuizAttempts(userID, lessonID)
	if err != nil {
		return nil, err
	}

	summary := &QuizSummary{
		LessonID:      lessonID,
		Attempts:      attempts,
		TotalAttempts: len(attempts),
	}
	for _, a := range attempts {
		if a.Score > summary.BestScore {
			summary.BestScore = a.Score
		}
		summary.TotalPoints += a.PointsEarned
	}
	return summary, nil
}
