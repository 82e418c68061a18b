package hub

import (
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must be below pongWait
	maxMessageSize = 4 << 10
	sendBuffer     = 256
)

// conn is the part of *websocket.Conn the pumps use.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one websocket connection attached to a hub.
type Client struct {
	hub  *Hub
	conn conn
	send chan Message
	done chan struct{} // closed when writePump returns
}

// NewClient attaches conn to hub. Initial messages are queued ahead of any
// broadcast, so a new page sees the current state first. It returns nil
// when the hub has stopped.
func NewClient(hub *Hub, conn *websocket.Conn, initial ...Message) *Client {
	return attach(hub, conn, initial...)
}

func attach(hub *Hub, ws conn, initial ...Message) *Client {
	c := &Client{
		hub:  hub,
		conn: ws,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
	for _, m := range initial {
		c.send <- m
	}
	if !hub.join(c) {
		return nil
	}
	return c
}

// Run serves the connection until it closes. Call it from the websocket
// handler: it returns only after both pumps are done with the connection,
// so the handler may hand the conn back to fiber.
func (c *Client) Run() {
	go func() {
		defer close(c.done)
		c.writePump()
	}()
	c.readPump()
	<-c.done
}

// readPump hands text frames to the hub's handler and notices disconnects.
// Leaving the hub closes send, which ends writePump.
func (c *Client) readPump() {
	defer c.hub.leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.TextMessage {
			c.hub.dispatch(c, data)
		}
	}
}

// writePump owns all writes to the connection and closes it on exit,
// which also unblocks a pending read.
func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(m.Type.Opcode(), m.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
