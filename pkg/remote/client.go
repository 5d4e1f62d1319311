package remote

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = (pongWait * 9) / 10
	clientSendBuf = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client wraps one websocket connection. It never reads anything
// meaningful from the peer — the stream is broadcast-only — but it still
// pumps reads so pong frames are processed and a dead connection is
// noticed.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Handler upgrades HTTP connections to websockets and registers each one
// with the Hub's broadcast loop. Mount at whatever path the caller likes;
// cmd/kestrel wires it at /v1/stream.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		c := &client{conn: conn, send: make(chan []byte, clientSendBuf)}
		h.register <- c

		go h.writePump(c)
		go h.readPump(c)
	}
}

// readPump does nothing with the messages it reads — kestrel's remote
// stream takes no client input — but draining reads is what lets
// gorilla/websocket process control frames (pong, close) and detect a
// dropped connection.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug().Err(err).Msg("remote client read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
