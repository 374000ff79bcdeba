package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"numerom/internal/models"
	"numerom/internal/progress"
)

// === Упражнения ===

func (h *Handler) SubmitExerciseResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID     string `json:"lesson_id"`
		ExerciseID   string `json:"exercise_id"`
		ResponseText string `json:"response_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, p, err := h.progress.SubmitExerciseResponse(userID(r), req.LessonID, req.ExerciseID, req.ResponseText)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"message":  "ответ сохранён",
		"response": resp,
		"progress": p,
	}, http.StatusOK)
}

func (h *Handler) GetExerciseResponses(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["lessonId"]
	responses, err := h.store.GetExerciseResponses(userID(r), lessonID)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if responses == nil {
		responses = []models.ExerciseResponse{}
	}

	jsonResponse(w, map[string]interface{}{
		"lesson_id": lessonID,
		"responses": responses,
		"count":     len(responses),
	}, http.StatusOK)
}

// GetExerciseResponse возвращает ответ студента на одно упражнение
func (h *Handler) GetExerciseResponse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	responses, err := h.store.GetExerciseResponses(userID(r), vars["lessonId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	for _, resp := range responses {
		if resp.ExerciseID == vars["exerciseId"] {
			jsonResponse(w, resp, http.StatusOK)
			return
		}
	}
	errorResponse(w, "ответ не найден", http.StatusNotFound)
}

// GetLessonProgress пересчитывает и возвращает прогресс по уроку
func (h *Handler) GetLessonProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.Recalculate(userID(r), mux.Vars(r)["lessonId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

func (h *Handler) ResetLesson(w http.ResponseWriter, r *http.Request) {
	if err := h.progress.ResetLesson(userID(r), mux.Vars(r)["lessonId"]); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, map[string]string{"message": "прогресс урока сброшен"}, http.StatusOK)
}

// === Тесты ===

func (h *Handler) SubmitQuizAttempt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lesson_id"`
		progress.QuizSubmission
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, p, err := h.progress.SubmitQuizAttempt(userID(r), req.LessonID, req.QuizSubmission)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"attempt":       attempt,
		"points_earned": attempt.PointsEarned,
		"passed":        attempt.Passed,
		"progress":      p,
	}, http.StatusOK)
}

func (h *Handler) GetQuizAttempts(w http.ResponseWriter, r *http.Request) {
	summary, err := h.progress.QuizSummary(userID(r), mux.Vars(r)["lessonId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if summary.Attempts == nil {
		summary.Attempts = []models.QuizAttempt{}
	}
	jsonResponse(w, summary, http.StatusOK)
}

// === Челленджи ===

func (h *Handler) SaveChallengeProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lesson_id"`
		progress.DayReport
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.progress.SaveChallengeDay(userID(r), req.LessonID, req.DayReport)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"message":        "прогресс челленджа сохранён",
		"attempt":        attempt,
		"points_earned":  attempt.PointsEarned,
		"is_completed":   attempt.IsCompleted,
		"attempt_number": attempt.AttemptNumber,
	}, http.StatusOK)
}

func (h *Handler) GetChallengeProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	status, err := h.progress.ChallengeStatus(userID(r), vars["lessonId"], vars["challengeId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, status, http.StatusOK)
}

func (h *Handler) GetChallengeHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	history, err := h.progress.ChallengeHistory(userID(r), vars["lessonId"], vars["challengeId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if history.Attempts == nil {
		history.Attempts = []models.ChallengeProgress{}
	}
	jsonResponse(w, history, http.StatusOK)
}

// === Время активности ===

func (h *Handler) TrackTimeActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lesson_id"`
		Minutes  int    `json:"minutes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	totals, err := h.progress.TrackTime(userID(r), req.LessonID, req.Minutes)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, totals, http.StatusOK)
}

func (h *Handler) GetTimeActivity(w http.ResponseWriter, r *http.Request) {
	totals, err := h.progress.TimeActivity(userID(r), mux.Vars(r)["lessonId"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, totals, http.StatusOK)
}

func (h *Handler) TrackVideoWatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lesson_id"`
		FileID   string `json:"file_id"`
		Minutes  int    `json:"minutes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	totals, err := h.progress.TrackVideo(userID(r), req.LessonID, req.FileID, req.Minutes)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, totals, http.StatusOK)
}

// === Личный кабинет ===

func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.progress.DashboardStats(userID(r))
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	jsonResponse(w, stats, http.StatusOK)
}
