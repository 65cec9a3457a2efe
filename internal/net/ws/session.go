package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shakeout/server/internal/game"
	"shakeout/server/internal/net/proto"
)

// client is one websocket connection in the lobby. Writes are serialized;
// reads happen only on the connection's serve goroutine.
type client struct {
	id    string
	name  string
	conn  *websocket.Conn
	codec proto.Codec

	mu           sync.Mutex
	writeTimeout time.Duration
}

func (c *client) member() proto.LobbyMember {
	return proto.LobbyMember{ID: c.id, Name: c.name}
}

func (c *client) spec() game.PlayerSpec {
	return game.PlayerSpec{ID: c.id, Name: c.name, Conn: c}
}

func (c *client) send(v any) error {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(data)
}

// writeLocked writes an encoded frame. The caller holds c.mu.
func (c *client) writeLocked(data []byte) error {
	kind := websocket.TextMessage
	if c.codec.Binary() {
		kind = websocket.BinaryMessage
	}
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(kind, data)
}

func (c *client) close(code int, reason string) {
	c.mu.Lock()
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	c.mu.Unlock()
	c.conn.Close()
}
