package progress

import (
	"time"

	"numerom/internal/models"
)

const (
	dashboardWindow = 30 * 24 * time.Hour
	weekWindow      = 7 * 24 * time.Hour
	chartDays       = 7
)

// Level описывает ступень студента по сумме баллов
type Level struct {
	Number          int    `json:"level"`
	Name            string `json:"level_name"`
	MinPoints       int    `json:"min_points"`
	NextLevelPoints int    `json:"next_level_points"`
}

var levels = []Level{
	{Number: 1, Name: "Новичок", MinPoints: 0, NextLevelPoints: 100},
	{Number: 2, Name: "Ученик", MinPoints: 100, NextLevelPoints: 250},
	{Number: 3, Name: "Продвинутый", MinPoints: 250, NextLevelPoints: 500},
	{Number: 4, Name: "Эксперт", MinPoints: 500, NextLevelPoints: 1000},
	{Number: 5, Name: "Мастер", MinPoints: 1000, NextLevelPoints: 2000},
}

// LevelFor возвращает наивысшую ступень, порог которой достигнут
func LevelFor(points int) Level {
	for i := len(levels) - 1; i > 0; i-- {
		if points >= levels[i].MinPoints {
			return levels[i]
		}
	}
	return levels[0]
}

// Achievement описывает полученный значок
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type achievementStats struct {
	completedLessons  int
	challengeAttempts int
	points            int
	weekActivity      int
}

var achievementRules = []struct {
	Achievement
	metric    func(achievementStats) int
	threshold int
}{
	{Achievement{"first_lesson", "Первый шаг", "Завершен первый урок", "🎯"}, lessonsMetric, 1},
	{Achievement{"five_lessons", "Упорный ученик", "Завершено 5 уроков", "📚"}, lessonsMetric, 5},
	{Achievement{"ten_lessons", "Знаток", "Завершено 10 уроков", "🏆"}, lessonsMetric, 10},
	{Achievement{"first_challenge", "Принял вызов", "Начат первый челлендж", "⚡"}, challengesMetric, 1},
	{Achievement{"hundred_points", "Сотня", "Заработано 100 баллов", "💯"}, pointsMetric, 100},
	{Achievement{"five_hundred_points", "Коллекционер", "Заработано 500 баллов", "💎"}, pointsMetric, 500},
	{Achievement{"thousand_points", "Легенда", "Заработано 1000 баллов", "👑"}, pointsMetric, 1000},
	{Achievement{"active_learner", "Активный ученик", "5+ активностей за неделю", "🔥"}, weekMetric, 5},
}

func lessonsMetric(s achievementStats) int    { return s.completedLessons }
func challengesMetric(s achievementStats) int { return s.challengeAttempts }
func pointsMetric(s achievementStats) int     { return s.points }
func weekMetric(s achievementStats) int       { return s.weekActivity }

// ActivityCounts содержит число действий студента по видам
type ActivityCounts struct {
	Challenges int `json:"challenges"`
	Quizzes    int `json:"quizzes"`
	Exercises  int `json:"exercises"`
	Total      int `json:"total"`
}

// DayActivity содержит число действий за один день графика
type DayActivity struct {
	Date     string `json:"date"`
	DayName  string `json:"day_name"`
	Activity int    `json:"activity"`
}

var weekdayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Dashboard содержит сводку студента для личного кабинета
type Dashboard struct {
	UserID             string               `json:"user_id"`
	Points             models.PointsSummary `json:"points"`
	TotalLessons       int                  `json:"total_lessons"`
	CompletedLessons   int                  `json:"completed_lessons"`
	ExercisesCompleted int                  `json:"exercises_completed"`
	ChallengeAttempts  int                  `json:"challenge_attempts"`
	QuizAttempts       int                  `json:"quiz_attempts"`
	TimeMinutes        int                  `json:"time_minutes"`
	VideoMinutes       int                  `json:"video_minutes"`
	RecentActivity     ActivityCounts       `json:"recent_activity_30days"`
	Level              Level                `json:"level"`
	Achievements       []Achievement        `json:"achievements"`
	ActivityChart      []DayActivity        `json:"activity_chart"`
}

type dashboardInput struct {
	userID       string
	totalLessons int
	progress     []models.LessonProgress
	responses    []models.ExerciseResponse
	quizzes      []models.QuizAttempt
	challenges   []models.ChallengeProgress
	time, video  models.ActivityTotals
	now          time.Time
}

// DashboardStats собирает баллы, уровень, значки и активность студента
// по всем урокам
func (s *Service) DashboardStats(userID string) (*Dashboard, error) {
	in := dashboardInput{userID: userID, now: s.now()}

	var err error
	if in.totalLessons, err = s.store.CountLessons(true); err != nil {
		return nil, err
	}
	if in.progress, err = s.store.ListProgressByUser(userID); err != nil {
		return nil, err
	}
	if in.responses, err = s.store.ListResponsesByUser(userID); err != nil {
		return nil, err
	}
	if in.quizzes, err = s.store.ListQuizAttemptsByUser(userID); err != nil {
		return nil, err
	}
	if in.challenges, err = s.store.ListChallengeProgressByUser(userID); err != nil {
		return nil, err
	}
	if in.time, in.video, err = s.store.SumUserActivity(userID); err != nil {
		return nil, err
	}

	return buildDashboard(in), nil
}

// activityEvent отмечает одно действие студента для подсчёта активности
type activityEvent struct {
	at   time.Time
	kind string
}

func buildDashboard(in dashboardInput) *Dashboard {
	d := &Dashboard{
		UserID:             in.userID,
		TotalLessons:       in.totalLessons,
		ExercisesCompleted: len(in.responses),
		ChallengeAttempts:  len(in.challenges),
		QuizAttempts:       len(in.quizzes),
		TimeMinutes:        in.time.TotalMinutes,
		VideoMinutes:       in.video.TotalMinutes,
		Achievements:       make([]Achievement, 0),
		ActivityChart:      make([]DayActivity, 0, chartDays),
	}

	for _, p := range in.progress {
		if p.IsCompleted {
			d.CompletedLessons++
		}
	}

	var events []activityEvent
	for _, c := range in.challenges {
		d.Points.Challenges += c.PointsEarned
		if c.CompletedAt != nil {
			events = append(events, activityEvent{*c.CompletedAt, "challenge"})
		}
	}
	for _, q := range in.quizzes {
		d.Points.Quizzes += q.PointsEarned
		events = append(events, activityEvent{q.AttemptedAt, "quiz"})
	}
	for _, r := range in.responses {
		events = append(events, activityEvent{r.SubmittedAt, "exercise"})
	}
	d.Points.Time = in.time.TotalPoints
	d.Points.Videos = in.video.TotalPoints
	d.Points.Total = d.Points.Challenges + d.Points.Quizzes + d.Points.Time + d.Points.Videos

	monthAgo := in.now.Add(-dashboardWindow)
	weekAgo := in.now.Add(-weekWindow)
	weekActivity := 0
	for _, e := range events {
		if !e.at.Before(weekAgo) {
			weekActivity++
		}
		if e.at.Before(monthAgo) {
			continue
		}
		switch e.kind {
		case "challenge":
			d.RecentActivity.Challenges++
		case "quiz":
			d.RecentActivity.Quizzes++
		case "exercise":
			d.RecentActivity.Exercises++
		}
		d.RecentActivity.Total++
	}

	d.Level = LevelFor(d.Points.Total)

	stats := achievementStats{
		completedLessons:  d.CompletedLessons,
		challengeAttempts: d.ChallengeAttempts,
		points:            d.Points.Total,
		weekActivity:      weekActivity,
	}
	for _, rule := range achievementRules {
		if rule.metric(stats) >= rule.threshold {
			d.Achievements = append(d.Achievements, rule.Achievement)
		}
	}

	now := in.now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := chartDays - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)
		day := DayActivity{
			Date:    start.Format("02.01"),
			DayName: weekdayNames[start.Weekday()],
		}
		for _, e := range events {
			at := e.at.UTC()
			if !at.Before(start) && at.Before(end) {
				day.Activity++
			}
		}
		d.ActivityChart = append(d.ActivityChart, day)
	}

	return d
}
