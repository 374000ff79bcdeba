package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numerom/internal/config"
)

func dialHeartbeat(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/student/heartbeat/ws?user_id=u1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, frame interface{}) map[string]interface{} {
	t.Helper()
	if s, ok := frame.(string); ok {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(s)))
	} else {
		require.NoError(t, conn.WriteJSON(frame))
	}
	var reply map[string]interface{}
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestHeartbeat_AccumulatesTime(t *testing.T) {
	env := newTestEnv(t)
	seedLesson(t, env.store)
	conn := dialHeartbeat(t, env)

	reply := exchange(t, conn, heartbeatFrame{Kind: heartbeatTime, LessonID: "l1", Minutes: 1})
	assert.Equal(t, float64(1), reply["total_minutes"])

	// повтор того же пульса суммируется
	reply = exchange(t, conn, heartbeatFrame{Kind: heartbeatTime, LessonID: "l1", Minutes: 1})
	assert.Equal(t, float64(2), reply["total_minutes"])
	assert.Equal(t, float64(2), reply["total_points"])

	reply = exchange(t, conn, heartbeatFrame{Kind: heartbeatVideo, LessonID: "l1", FileID: "f1", Minutes: 3})
	assert.Equal(t, "video", reply["kind"])
	assert.Equal(t, float64(30), reply["total_points"])

	totals, err := env.store.GetTimeActivity("u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, totals.TotalMinutes)
}

func TestHeartbeat_BadFramesKeepConnection(t *testing.T) {
	env := newTestEnv(t)
	seedLesson(t, env.store)
	conn := dialHeartbeat(t, env)

	frames := []interface{}{
		"not json",
		heartbeatFrame{Kind: "scroll", LessonID: "l1", Minutes: 1},
		heartbeatFrame{Kind: heartbeatTime, LessonID: "l1", Minutes: 0},
		heartbeatFrame{Kind: heartbeatTime, LessonID: "missing", Minutes: 1},
		heartbeatFrame{Kind: heartbeatVideo, LessonID: "l1", Minutes: 1},
	}
	for _, frame := range frames {
		reply := exchange(t, conn, frame)
		assert.Contains(t, reply, "error", "frame %v", frame)
	}

	reply := exchange(t, conn, heartbeatFrame{Kind: heartbeatTime, LessonID: "l1", Minutes: 5})
	assert.Equal(t, float64(5), reply["total_minutes"])
}

func TestCheckOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"https://numerom.example"}
	h := &Handler{config: cfg}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, h.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "https://numerom.example")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(req))

	cfg.AllowedOrigins = []string{"*"}
	assert.True(t, h.checkOrigin(req))
}
