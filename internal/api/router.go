package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter создаёт HTTP-роутер со всеми эндпоинтами
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, Logger, Recovery)

	// Версия API
	api := r.PathPrefix("/api/v1").Subrouter()

	// Система
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/config", h.GetClientConfig).Methods("GET")

	// Уроки
	api.HandleFunc("/lessons", h.GetLessons).Methods("GET")
	api.HandleFunc("/lessons/{id}", h.GetLesson).Methods("GET")

	// Разбор текста без сохранения
	api.HandleFunc("/parse/{kind}", h.PreviewParse).Methods("POST")

	// Студент
	student := api.PathPrefix("/student").Subrouter()
	student.HandleFunc("/exercise-response", h.SubmitExerciseResponse).Methods("POST")
	student.HandleFunc("/exercise-responses/{lessonId}", h.GetExerciseResponses).Methods("GET")
	student.HandleFunc("/exercise-response/{lessonId}/{exerciseId}", h.GetExerciseResponse).Methods("GET")
	student.HandleFunc("/lesson-progress/{lessonId}", h.GetLessonProgress).Methods("GET")
	student.HandleFunc("/reset-lesson/{lessonId}", h.ResetLesson).Methods("DELETE")
	student.HandleFunc("/quiz-attempt", h.SubmitQuizAttempt).Methods("POST")
	student.HandleFunc("/quiz-attempts/{lessonId}", h.GetQuizAttempts).Methods("GET")
	student.HandleFunc("/challenge-progress", h.SaveChallengeProgress).Methods("POST")
	student.HandleFunc("/challenge-progress/{lessonId}/{challengeId}", h.GetChallengeProgress).Methods("GET")
	student.HandleFunc("/challenge-history/{lessonId}/{challengeId}", h.GetChallengeHistory).Methods("GET")
	student.HandleFunc("/time-activity", h.TrackTimeActivity).Methods("POST")
	student.HandleFunc("/time-activity/{lessonId}", h.GetTimeActivity).Methods("GET")
	student.HandleFunc("/video-watch", h.TrackVideoWatch).Methods("POST")
	student.HandleFunc("/heartbeat/ws", h.Heartbeat).Methods("GET")
	student.HandleFunc("/dashboard-stats", h.GetDashboardStats).Methods("GET")

	// Администратор
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/lessons", h.GetAdminLessons).Methods("GET")
	admin.HandleFunc("/lessons", h.CreateLesson).Methods("POST")
	admin.HandleFunc("/lessons/import", h.ImportLesson).Methods("POST")
	admin.HandleFunc("/lessons/{id}", h.UpdateLesson).Methods("PUT")
	admin.HandleFunc("/lessons/{id}", h.DeleteLesson).Methods("DELETE")
	admin.HandleFunc("/lessons/{id}/import/{kind}", h.ImportSection).Methods("POST")
	admin.HandleFunc("/analytics/lesson/{id}", h.GetLessonAnalytics).Methods("GET")
	admin.HandleFunc("/analytics/student-responses/{id}", h.GetStudentResponses).Methods("GET")
	admin.HandleFunc("/analytics/challenge-notes/{id}", h.GetChallengeNotes).Methods("GET")
	admin.HandleFunc("/analytics/overview", h.GetOverview).Methods("GET")
	admin.HandleFunc("/pending-responses", h.GetPendingResponses).Methods("GET")
	admin.HandleFunc("/review-response/{responseId}", h.ReviewResponse).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   h.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", headerRequestID, headerUserID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
