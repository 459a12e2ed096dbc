package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/syncpad/syncpad/internal/collab"
	"github.com/syncpad/syncpad/internal/room"
	"github.com/syncpad/syncpad/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // snapshots carry full document content
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// same permissive policy as the HTTP CORS middleware; identity is a
	// trusted header/query value either way
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is a client frame. Data stays raw: deltas and snapshots are opaque.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RegisterWS registers the realtime endpoint. The identity travels in the
// `email` query parameter because browser websocket clients cannot set
// headers; it is trusted exactly like the REST header.
func RegisterWS(r *gin.Engine, engine *collab.Engine) {
	r.GET("/ws", func(c *gin.Context) {
		identity := c.Query("email")
		if identity == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email query parameter is required"})
			return
		}
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warnf("ws: upgrade failed for %s: %v", identity, err)
			return
		}

		sess := engine.NewSession(identity)
		go writePump(ws, sess)
		readPump(ws, sess)
	})
}

// readPump drives the session from inbound frames until the socket closes.
// Runs on the handler goroutine; one reader per connection.
func readPump(ws *websocket.Conn, sess *collab.Session) {
	defer func() {
		sess.Close()
		_ = ws.Close()
	}()
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("ws: session %s read error: %v", sess.Conn().ID(), err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debugf("ws: session %s sent malformed frame: %v", sess.Conn().ID(), err)
			continue
		}
		switch msg.Event {
		case room.EventGetDocument:
			var docID string
			if err := json.Unmarshal(msg.Data, &docID); err != nil || docID == "" {
				logger.Debugf("ws: session %s get-document without id", sess.Conn().ID())
				continue
			}
			// denial is signalled on the session's own channel; the error
			// here only ends the read loop for terminal states
			if err := sess.Attach(docID); err != nil {
				if sess.State() == collab.StateDenied {
					return
				}
			}
		case room.EventSendChanges:
			sess.SubmitDelta(msg.Data)
		case room.EventSaveDocument:
			sess.SubmitSnapshot(snapshotContent(msg.Data))
		default:
			logger.Debugf("ws: session %s unknown event %q", sess.Conn().ID(), msg.Event)
		}
	}
}

// writePump drains the session's outbound queue onto the socket and keeps
// the connection alive with pings. Exits when the session ends, which also
// unblocks the read pump via the closed socket.
func writePump(ws *websocket.Conn, sess *collab.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()
	conn := sess.Conn()
	for {
		select {
		case env := <-conn.Out():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(env); err != nil {
				sess.Close()
				return
			}
		case <-conn.Done():
			// flush whatever is still queued (the document-deleted notice
			// must reach the client before the close frame)
			for {
				select {
				case env := <-conn.Out():
					_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
					if ws.WriteJSON(env) != nil {
						return
					}
				default:
					_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
					_ = ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.Close()
				return
			}
		}
	}
}

// snapshotContent accepts either a JSON string or any JSON value as the
// snapshot payload; non-string payloads are stored in their serialized form.
func snapshotContent(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
