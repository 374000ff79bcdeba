package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"numerom/internal/lessontext"
	"numerom/internal/models"
	"numerom/internal/pdf"
	"numerom/internal/storage"
)

const lessonNotFound = "урок не найден"

// lessonRequest описывает тело запроса создания и изменения урока. Отсутствующие
// разделы при изменении сохраняются.
type lessonRequest struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Module           string               `json:"module"`
	Level            int                  `json:"level"`
	Order            int                  `json:"order"`
	PointsRequired   int                  `json:"points_required"`
	IsActive         *bool                `json:"is_active"`
	AnalyticsEnabled *bool                `json:"analytics_enabled"`
	Theory           []models.TheoryBlock `json:"theory"`
	Exercises        []models.Exercise    `json:"exercises"`
	Challenge        *models.Challenge    `json:"challenge"`
	Quiz             *models.Quiz         `json:"quiz"`
}

func (req *lessonRequest) apply(l *models.Lesson) {
	l.Title = strings.TrimSpace(req.Title)
	l.Description = req.Description
	l.Module = req.Module
	l.Level = req.Level
	l.Order = req.Order
	l.PointsRequired = req.PointsRequired
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if req.AnalyticsEnabled != nil {
		l.AnalyticsEnabled = *req.AnalyticsEnabled
	}
	if req.Theory != nil {
		l.Theory = req.Theory
	}
	if req.Exercises != nil {
		l.Exercises = req.Exercises
	}
	if req.Challenge != nil {
		l.Challenge = req.Challenge
	}
	if req.Quiz != nil {
		l.Quiz = req.Quiz
	}
}

// === Уроки для студентов ===

func (h *Handler) GetLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.store.ListLessons(true)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"lessons": lessons,
		"count":   len(lessons),
	}, http.StatusOK)
}

func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.store.GetLesson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	if !lesson.IsActive {
		errorResponse(w, lessonNotFound, http.StatusNotFound)
		return
	}

	jsonResponse(w, lesson, http.StatusOK)
}

// === Управление уроками ===

func (h *Handler) GetAdminLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.store.ListLessons(false)
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"lessons": lessons,
		"count":   len(lessons),
	}, http.StatusOK)
}

func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		errorResponse(w, "название урока обязательно", http.StatusBadRequest)
		return
	}

	lesson := &models.Lesson{IsActive: true, AnalyticsEnabled: true}
	req.apply(lesson)
	lesson.ID = strings.TrimSpace(req.ID)
	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	} else if _, err := h.store.GetLesson(lesson.ID); err == nil {
		errorResponse(w, fmt.Sprintf("урок %s уже существует", lesson.ID), http.StatusConflict)
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, err, lessonNotFound)
		return
	}

	if err := h.store.SaveLesson(lesson); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	slog.Info("lesson created", "lesson_id", lesson.ID, "title", lesson.Title)
	jsonResponse(w, lesson, http.StatusCreated)
}

func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.store.GetLesson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	var req lessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		errorResponse(w, "название урока обязательно", http.StatusBadRequest)
		return
	}
	req.apply(lesson)

	if err := h.store.SaveLesson(lesson); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	slog.Info("lesson updated", "lesson_id", lesson.ID)
	jsonResponse(w, lesson, http.StatusOK)
}

func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteLesson(id); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	slog.Info("lesson deleted", "lesson_id", id)
	jsonResponse(w, map[string]string{"message": "урок удалён"}, http.StatusOK)
}

// === Загрузка разделов из файлов ===

// readUpload читает текст загруженного файла (.txt или .pdf)
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		errorResponse(w, "файл слишком большой или повреждён", http.StatusBadRequest)
		return "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, "файл не найден в запросе", http.StatusBadRequest)
		return "", false
	}
	defer file.Close()

	text, err := pdf.ReadLessonText(header.Filename, file)
	if err != nil {
		errorResponse(w, fmt.Sprintf("не удалось прочитать файл: %v", err), http.StatusBadRequest)
		return "", false
	}
	return text, true
}

func kindFromPath(w http.ResponseWriter, r *http.Request) (lessontext.Kind, bool) {
	kind, ok := lessontext.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		errorResponse(w, fmt.Sprintf("неизвестный тип раздела %q", mux.Vars(r)["kind"]), http.StatusBadRequest)
	}
	return kind, ok
}

// ImportSection разбирает файл и заменяет соответствующий раздел урока
func (h *Handler) ImportSection(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}
	lesson, err := h.store.GetLesson(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}
	text, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res := lessontext.Parse(kind, text)
	if res.Count() == 0 {
		errorResponse(w, fmt.Sprintf("в файле не найден раздел %s", kind), http.StatusBadRequest)
		return
	}

	switch kind {
	case lessontext.KindTheory:
		lesson.Theory = res.Theory
	case lessontext.KindExercises:
		lesson.Exercises = res.Exercises
	case lessontext.KindChallenge:
		lesson.Challenge = res.Challenge
	case lessontext.KindQuiz:
		lesson.Quiz = res.Quiz
	}
	if err := h.store.SaveLesson(lesson); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	slog.Info("lesson section imported",
		"lesson_id", lesson.ID,
		"kind", kind,
		"items", res.Count(),
	)
	jsonResponse(w, map[string]interface{}{
		"message":   "раздел урока загружен",
		"lesson_id": lesson.ID,
		"kind":      kind,
		"imported":  res.Count(),
		"sections":  sectionCounts(lesson),
	}, http.StatusOK)
}

// ImportLesson создаёт урок из одного файла со всеми разделами. Название
// из поля формы title заменяет найденное в файле.
func (h *Handler) ImportLesson(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	lesson := lessontext.ParseLesson(text)
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		lesson.Title = title
	}
	if lesson.Title == "" {
		errorResponse(w, "название урока не найдено в файле", http.StatusBadRequest)
		return
	}
	counts := sectionCounts(lesson)
	if counts["theory_blocks"]+counts["exercises"]+counts["challenge_days"]+counts["quiz_questions"] == 0 {
		errorResponse(w, "в файле не найдено ни одного раздела урока", http.StatusBadRequest)
		return
	}

	lesson.ID = uuid.New().String()
	if err := h.store.SaveLesson(lesson); err != nil {
		writeError(w, r, err, lessonNotFound)
		return
	}

	slog.Info("lesson imported from file",
		"lesson_id", lesson.ID,
		"title", lesson.Title,
		"theory_blocks", counts["theory_blocks"],
		"exercises", counts["exercises"],
	)
	jsonResponse(w, map[string]interface{}{
		"message":   "урок загружен",
		"lesson_id": lesson.ID,
		"title":     lesson.Title,
		"sections":  counts,
	}, http.StatusCreated)
}

// PreviewParse разбирает текст без сохранения. Принимает multipart-файл
// или текст в теле запроса.
func (h *Handler) PreviewParse(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}

	var text string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if text, ok = h.readUpload(w, r); !ok {
			return
		}
	} else {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes))
		if err != nil {
			errorResponse(w, "не удалось прочитать тело запроса", http.StatusBadRequest)
			return
		}
		text = pdf.CleanText(string(data))
	}

	jsonResponse(w, lessontext.Parse(kind, text), http.StatusOK)
}

func sectionCounts(l *models.Lesson) map[string]int {
	counts := map[string]int{
		"theory_blocks":  len(l.Theory),
		"exercises":      len(l.Exercises),
		"challenge_days": 0,
		"quiz_questions": 0,
	}
	if l.Challenge != nil {
		counts["challenge_days"] = len(l.Challenge.DailyTasks)
	}
	if l.Quiz != nil {
		counts["quiz_questions"] = len(l.Quiz.Questions)
	}
	return counts
}
