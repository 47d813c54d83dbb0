package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Context keys set by the HTTP layer's client token middleware.
const (
	ClientTokenKey = "client_token"
	// FreshTokenKey marks a token minted for this request. The 101 response
	// carries no Set-Cookie, so such a client never presents it again.
	FreshTokenKey = "client_token_fresh"
)

// limiterKey is the token for clients that hold a cookie and the remote IP
// for those that do not.
func limiterKey(c *gin.Context) string {
	if token := c.GetString(ClientTokenKey); token != "" && !c.GetBool(FreshTokenKey) {
		return "token:" + token
	}
	return "ip:" + c.ClientIP()
}

// Options tune the per-connection transport.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

type RoomWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RateLimiter
	opts    Options
}

func NewRoomWSController(o *orch.Orchestrator, limiter *RateLimiter, opts Options) *RoomWSController {
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &RoomWSController{Orch: o, Limiter: limiter, opts: opts}
}

// WsSignalConn is the room-facing side of one WebSocket. The room loop only
// enqueues; the write pump owns the socket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu          sync.RWMutex
	closed      bool
	closeCode   int
	closeReason string
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close never blocks. The write pump flushes queued frames, then sends the
// close frame with code and reason and drops the socket.
func (c *WsSignalConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.send)
}

func (c *WsSignalConn) closeStatus() (int, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closeCode, c.closeReason
}

func (c *WsSignalConn) writeClose(code int, reason string, wait time.Duration) error {
	msg := websocket.FormatCloseMessage(code, reason)
	return c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wait))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRoom serves GET /room/:room. The upgrade always completes; a refused
// admission is reported with a close code afterwards.
func (ctl *RoomWSController) HandleRoom(ctx context.Context, c *gin.Context) {
	name := domain.RoomName(c.Param("room"))
	key := c.Query("key")
	token := c.GetString(ClientTokenKey)

	if ctl.Limiter != nil && !ctl.Limiter.Allow(limiterKey(c)) {
		log.Warn().Str("module", "signal").Str("client", limiterKey(c)).Str("room", string(name)).Msg("connect rate limited")
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	sid := core.NewSessionID()
	logger := log.With().Str("module", "signal").Str("sid", string(sid)).Str("room", string(name)).Str("client", token).Logger()
	logger.Info().Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	if err := ctl.Orch.Join(ctx, sid, name, key, conn); err != nil {
		code, reason := core.CloseGoingAway, "server unavailable"
		if errors.Is(err, app.ErrRoomNotFound) {
			code, reason = core.CloseRoomNotFound, "room not found"
		}
		logger.Info().Err(err).Int("code", code).Msg("connection refused")
		if err := conn.writeClose(code, reason, ctl.opts.WriteWait); err != nil {
			logger.Warn().Err(err).Msg("write close")
		}
		_ = ws.Close()
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.readPump(gctx, sid, conn) })
	g.Go(func() error { return ctl.writePump(gctx, conn) })
	if err := g.Wait(); err != nil {
		logger.Debug().Err(err).Msg("connection ended")
	}
	logger.Info().Msg("WS connection closed")
}
