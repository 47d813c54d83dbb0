package orch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/metrics"
)

type nopConn struct {
	mu     sync.Mutex
	sent   int
	closed int
}

func (c *nopConn) TrySend(core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
	return nil
}

func (c *nopConn) Close(code int, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = code
}

func newTestOrch(t *testing.T) *Orchestrator {
	t.Helper()
	mgr := app.NewRoomManager(app.RoomOptions{Metrics: metrics.New(prometheus.NewRegistry())})
	t.Cleanup(mgr.Shutdown)
	return New(mgr)
}

func TestJoinRejectedIsNotRouted(t *testing.T) {
	o := newTestOrch(t)
	err := o.Join(context.Background(), "s1", "empty", "", &nopConn{})
	if !errors.Is(err, app.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
	if _, ok := o.Directory.RoomOf("s1"); ok {
		t.Error("rejected session was routed")
	}
	if err := o.OnFrame(context.Background(), "s1", core.Frame("x")); err != nil {
		t.Errorf("frame from unrouted session: %v", err)
	}
}

func TestJoinRoutesAndDisconnectUnbinds(t *testing.T) {
	o := newTestOrch(t)
	ctx := context.Background()
	if err := o.Join(ctx, "s1", "team", "k", &nopConn{}); err != nil {
		t.Fatal(err)
	}
	if err := o.Join(ctx, "s2", "team", "", &nopConn{}); err != nil {
		t.Fatal(err)
	}
	room, ok := o.Directory.RoomOf("s1")
	if !ok || room.Room().Name != "team" {
		t.Fatalf("s1 routed to %v", room)
	}
	if got := len(o.Directory.SessionsOf("team")); got != 2 {
		t.Errorf("sessions of team = %d, want 2", got)
	}

	o.OnDisconnect("s1")
	o.OnDisconnect("s1")
	info, err := room.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", info.MemberCount)
	}
	if o.Directory.Len() != 1 {
		t.Errorf("directory len = %d, want 1", o.Directory.Len())
	}
}

func TestEvictRoom(t *testing.T) {
	o := newTestOrch(t)
	conn := &nopConn{}
	if err := o.Join(context.Background(), "s1", "gone", "k", conn); err != nil {
		t.Fatal(err)
	}
	room, _ := o.Directory.RoomOf("s1")

	o.EvictRoom("gone")
	<-room.Done()

	if o.Directory.Len() != 0 {
		t.Error("evicted sessions still routed")
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed != core.CloseGoingAway {
		t.Errorf("close code = %d, want 1001", conn.closed)
	}
}
