package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"numerom/internal/analytics"
	"numerom/internal/models"
)

const responseNotFound = "ответ не найден"

// === Аналитика ===

func (h *Handler) GetLessonAnalytics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lesson, err := h.store.GetLesson(id)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	in := analytics.LessonInput{Lesson: lesson}
	if in.Responses, err = h.store.ListResponsesByLesson(id); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.Progress, err = h.store.ListProgressByLesson(id); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.QuizAttempts, err = h.store.ListQuizAttemptsByLesson(id); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.Challenges, err = h.store.ListChallengeProgressByLesson(id); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, analytics.BuildLessonReport(in), http.StatusOK)
}

func (h *Handler) GetStudentResponses(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lesson, err := h.store.GetLesson(id)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	responses, err := h.store.ListResponsesByLesson(id)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, analytics.BuildResponsesReport(lesson, responses), http.StatusOK)
}

func (h *Handler) GetChallengeNotes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lesson, err := h.store.GetLesson(id)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	attempts, err := h.store.ListChallengeProgressByLesson(id)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, analytics.BuildNotesReport(lesson, attempts), http.StatusOK)
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	var (
		in  = analytics.OverviewInput{Now: h.now().UTC()}
		err error
	)
	if in.Lessons, err = h.store.ListLessons(false); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.ActiveLessons, err = h.store.CountLessons(true); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.TotalResponses, in.PendingCount, err = h.store.CountResponses(); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.Pending, err = h.store.ListPendingResponses(analytics.PendingPreviewLimit); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.Points, err = h.store.SumPoints(); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if in.Progress, err = h.store.ListAllProgress(); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, analytics.BuildOverview(in), http.StatusOK)
}

// === Проверка ответов ===

func (h *Handler) GetPendingResponses(w http.ResponseWriter, r *http.Request) {
	limit := getQueryInt(r, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	responses, err := h.store.ListPendingResponses(limit)
	if err != nil {
		writeError(w, r, err, responseNotFound)
		return
	}
	if responses == nil {
		responses = []models.ExerciseResponse{}
	}

	jsonResponse(w, map[string]interface{}{
		"responses": responses,
		"count":     len(responses),
	}, http.StatusOK)
}

func (h *Handler) ReviewResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminComment string `json:"admin_comment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.progress.ReviewResponse(mux.Vars(r)["responseId"], req.AdminComment, userID(r))
	if err != nil {
		writeError(w, r, err, responseNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"message":  "ответ проверен",
		"response": resp,
	}, http.StatusOK)
}
