package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"numerom/internal/models"
	"numerom/internal/progress"
	"numerom/internal/storage"
)

// Виды пульса активности
const (
	heartbeatTime  = "time"
	heartbeatVideo = "video"
)

// heartbeatFrame описывает сообщение клиента о минутах активности
type heartbeatFrame struct {
	Kind     string `json:"kind"`
	LessonID string `json:"lesson_id"`
	FileID   string `json:"file_id,omitempty"`
	Minutes  int    `json:"minutes"`
}

// heartbeatAck подтверждает пульс накопленными итогами
type heartbeatAck struct {
	Kind         string `json:"kind"`
	LessonID     string `json:"lesson_id"`
	FileID       string `json:"file_id,omitempty"`
	TotalMinutes int    `json:"total_minutes"`
	TotalPoints  int    `json:"total_points"`
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Heartbeat принимает пульсы активности по websocket. Каждый кадр
// подтверждается итогами или ошибкой; некорректный кадр не закрывает соединение.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "request_id", GetRequestID(r.Context()))
		return
	}
	defer conn.Close()

	user := userID(r)
	idle := 3 * time.Duration(h.config.HeartbeatIntervalSeconds) * time.Second
	if idle <= 0 {
		idle = 3 * time.Minute
	}

	slog.Info("heartbeat connected", "user_id", user)
	defer slog.Info("heartbeat disconnected", "user_id", user)

	for {
		conn.SetReadDeadline(time.Now().Add(idle))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("heartbeat read failed", "user_id", user, "error", err)
			}
			return
		}

		var reply interface{}
		ack, err := h.applyHeartbeat(user, data)
		if err != nil {
			reply = map[string]string{"error": heartbeatError(err)}
		} else {
			reply = ack
		}
		if err := conn.WriteJSON(reply); err != nil {
			slog.Warn("heartbeat write failed", "user_id", user, "error", err)
			return
		}
	}
}

func (h *Handler) applyHeartbeat(user string, data []byte) (*heartbeatAck, error) {
	var frame heartbeatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", progress.ErrInvalidInput)
	}

	var (
		totals models.ActivityTotals
		err    error
	)
	switch frame.Kind {
	case heartbeatTime:
		totals, err = h.progress.TrackTime(user, frame.LessonID, frame.Minutes)
	case heartbeatVideo:
		totals, err = h.progress.TrackVideo(user, frame.LessonID, frame.FileID, frame.Minutes)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", progress.ErrInvalidInput, frame.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &heartbeatAck{
		Kind:         frame.Kind,
		LessonID:     frame.LessonID,
		FileID:       frame.FileID,
		TotalMinutes: totals.TotalMinutes,
		TotalPoints:  totals.TotalPoints,
	}, nil
}

func heartbeatError(err error) string {
	switch {
	case errors.Is(err, progress.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return lessonNotFound
	default:
		slog.Error("heartbeat failed", "error", err)
		return "внутренняя ошибка сервера"
	}
}
