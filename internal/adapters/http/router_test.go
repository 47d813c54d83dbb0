package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/metrics"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close(int, string)        {}

func newTestRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	return newLimitedRouter(t, nil)
}

func newLimitedRouter(t *testing.T, limiter *signal.RateLimiter) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	mgr := app.NewRoomManager(app.RoomOptions{Metrics: metrics.New(reg)})
	t.Cleanup(mgr.Shutdown)
	o := orch.New(mgr)
	cfg := &config.Config{Mode: "test", Secret: "test-secret", MetricsEnabled: true, SendBuffer: 8}
	return SetupRouter(context.Background(), cfg, Deps{Orch: o, Limiter: limiter, Gatherer: reg}), o
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/healthz")
	if w.Code != nethttp.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "HuddleSessions=") {
		t.Error("client token cookie not issued")
	}
}

func TestRoomsAPI(t *testing.T) {
	r, o := newTestRouter(t)
	if err := o.Join(context.Background(), "s1", "standup", "k", nopConn{}); err != nil {
		t.Fatal(err)
	}

	w := get(r, "/api/rooms")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var rooms []core.RoomInfo
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].Name != "standup" || rooms[0].MemberCount != 1 {
		t.Errorf("rooms = %+v", rooms)
	}

	w = get(r, "/api/rooms/standup")
	if w.Code != nethttp.StatusOK || !strings.Contains(w.Body.String(), `"client_count":1`) {
		t.Errorf("room = %d %s", w.Code, w.Body.String())
	}

	if w := get(r, "/api/rooms/missing"); w.Code != nethttp.StatusNotFound {
		t.Errorf("missing room status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, o := newTestRouter(t)
	if err := o.Join(context.Background(), "s1", "m", "k", nopConn{}); err != nil {
		t.Fatal(err)
	}
	w := get(r, "/metrics")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "huddle_sessions_active 1") {
		t.Errorf("sessions gauge missing from exposition:\n%s", w.Body.String())
	}
}

func TestDeleteRoomEvicts(t *testing.T) {
	r, o := newTestRouter(t)
	if err := o.Join(context.Background(), "s1", "standup", "k", nopConn{}); err != nil {
		t.Fatal(err)
	}
	room, ok := o.Rooms.Get("standup")
	if !ok {
		t.Fatal("room not created")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodDelete, "/api/rooms/standup", nil))
	if w.Code != nethttp.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("evicted room kept running")
	}
	if _, routed := o.Directory.RoomOf("s1"); routed {
		t.Error("session still routed to evicted room")
	}
	if w := get(r, "/api/rooms/standup"); w.Code != nethttp.StatusNotFound {
		t.Errorf("room after delete = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodDelete, "/api/rooms/standup", nil))
	if w.Code != nethttp.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestRoomConnectRateLimitedWithoutCookie(t *testing.T) {
	r, _ := newLimitedRouter(t, signal.NewRateLimiter(1, time.Minute))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/room/r?key=k"

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("first connect: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second cookieless connect was admitted with join_limit=1")
	}
	if resp == nil || resp.StatusCode != nethttp.StatusTooManyRequests {
		t.Fatalf("second connect response = %v, want 429", resp)
	}
}
