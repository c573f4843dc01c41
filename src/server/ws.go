package server

import (
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/marketloop/gateway/src/hub"
	"github.com/valyala/fasthttp"
)

// websocketHandler returns the raw fasthttp handler performing the
// client WebSocket upgrade at /ws.
func (s *Server) websocketHandler() fasthttp.RequestHandler {
	upgrader := websocket.FastHTTPUpgrader{
		ReadBufferSize:  s.cfg.Socket.ReadBufferSize,
		WriteBufferSize: s.cfg.Socket.WriteBufferSize,
		CheckOrigin:     func(_ *fasthttp.RequestCtx) bool { return true },
	}

	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		if limit := s.cfg.Socket.MaxConnections; limit > 0 && s.hub.ClientCount() >= limit {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"error":"too_many_connections"}`)
			return
		}

		clientID := uuid.New().String()
		h := s.hub

		err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			client := hub.NewClient(clientID, &wsConn{conn}, h)
			h.Register(client)
			go client.WritePump()
			client.ReadPump()
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// wsConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v any) error { return w.conn.WriteJSON(v) }
func (w *wsConn) ReadJSON(v any) error  { return w.conn.ReadJSON(v) }
func (w *wsConn) Close() error          { return w.conn.Close() }
