package signal

import (
	"context"
	"time"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(ctl.opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the session is
// disconnected exactly once and the transport is closed.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.Disconnect(sid)
		ctl.limiter.Forget(sid)
		c.Close()
	}()

	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		if !ctl.limiter.Allow(sid) {
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited, dropping message")
			continue
		}
		ctl.handleSignal(sid, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("dropping inbound message")
		return
	}

	switch m := msg.(type) {
	case JoinMsg:
		ctl.handleJoin(sid, m)
	case LeaveMsg:
		ctl.handleLeave(sid, m)
	case CodeChangeMsg:
		ctl.handleCodeChange(sid, m)
	case RequestLockMsg:
		ctl.handleRequestLock(sid, m)
	case ReleaseLockMsg:
		ctl.handleReleaseLock(sid, m)
	case LanguageChangeMsg:
		ctl.handleLanguageChange(sid, m)
	case CompileMsg:
		ctl.handleCompile(sid, m)
	case TypingMsg:
		ctl.handleTyping(sid, m)
	case PingMsg:
		ctl.handlePing(sid)
	case WhoAmIMsg:
		ctl.handleWhoAmI(sid)
	}
}
