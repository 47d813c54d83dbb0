package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
)

func (ctl *RoomWSController) pongWait() time.Duration {
	return ctl.opts.PingPeriod * 10 / 9
}

func (ctl *RoomWSController) writePump(ctx context.Context, c *WsSignalConn) error {
	defer c.conn.Close()

	var ping <-chan time.Time
	if ctl.opts.PingPeriod > 0 {
		t := time.NewTicker(ctl.opts.PingPeriod)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			_ = c.writeClose(core.CloseGoingAway, "", ctl.opts.WriteWait)
			return nil
		case data, ok := <-c.send:
			if !ok {
				code, reason := c.closeStatus()
				if err := c.writeClose(code, reason, ctl.opts.WriteWait); err != nil {
					log.Debug().Err(err).Str("module", "signal").Msg("writePump close frame")
				}
				return nil
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return err
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return err
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return err
			}
		}
	}
}

// readPump feeds binary frames to the room until the socket fails. On exit
// the session leaves its room and the write pump is told to finish.
func (ctl *RoomWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) error {
	defer func() {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(sid)
		c.Close(core.CloseNormal, "")
	}()

	if ctl.opts.PingPeriod > 0 {
		wait := ctl.pongWait()
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			return err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if err := ctl.Orch.OnFrame(ctx, sid, core.Frame(data)); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("deliver frame")
			return err
		}
	}
}
