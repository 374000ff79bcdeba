package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"numerom/internal/config"
	"numerom/internal/progress"
	"numerom/internal/storage"
)

// Handler обслуживает все эндпоинты API
type Handler struct {
	store    storage.Storage
	progress *progress.Service
	config   *config.Config
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewHandler создаёт обработчик API
func NewHandler(store storage.Storage, svc *progress.Service, cfg *config.Config) *Handler {
	h := &Handler{
		store:    store,
		progress: svc,
		config:   cfg,
		now:      time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Вспомогательные функции ответа
func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// writeError переводит ошибку слоя сервиса в HTTP-ответ
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		errorResponse(w, notFoundMsg, http.StatusNotFound)
	case errors.Is(err, progress.ErrInvalidInput):
		errorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
		)
		errorResponse(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errorResponse(w, "некорректный запрос", http.StatusBadRequest)
		return false
	}
	return true
}

// === Системные эндпоинты ===

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if _, err := h.store.CountLessons(false); err != nil {
		slog.Error("health check failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	jsonResponse(w, map[string]interface{}{
		"status":    status,
		"timestamp": h.now().UTC(),
	}, code)
}

// GetClientConfig отдаёт клиенту публичные настройки
func (h *Handler) GetClientConfig(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"public_url":                 h.config.PublicURL,
		"heartbeat_interval_seconds": h.config.HeartbeatIntervalSeconds,
		"max_upload_bytes":           h.config.MaxUploadBytes,
	}, http.StatusOK)
}

// Вспомогательная функция для необязательных параметров запроса
func getQueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
