package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-estately/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client is one live websocket connection. The connection starts unbound;
// it becomes bound to its user in the presence registry only once the
// client declares itself online.
type Client struct {
	conn       *websocket.Conn
	dispatcher *Dispatcher
	log        *log.Logger
	user       types.User
	send       chan *ServerEvent
	stop       chan struct{}
}

func NewClient(user types.User, conn *websocket.Conn, d *Dispatcher, l *log.Logger) *Client {
	return &Client{
		conn:       conn,
		dispatcher: d,
		log:        l,
		user:       user,
		send:       make(chan *ServerEvent, 256),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(NewMessageFailed(0, "invalid event format"))
			continue
		}

		switch {
		case ev.Online != nil:
			c.dispatcher.handleOnline(c, &ev)
		case ev.Offline != nil:
			c.dispatcher.handleOffline(c, &ev)
		case ev.Send != nil:
			c.dispatcher.handleSend(c, &ev)
		case ev.Typing != nil:
			c.dispatcher.handleTyping(c, &ev)
		case ev.Join != nil:
			c.dispatcher.joinRoom(c, ev.Join.RoomId)
		case ev.Leave != nil:
			c.dispatcher.leaveRoom(c, ev.Leave.RoomId)
		}
	}
}

// queueEvent enqueues ev for delivery on the client's write pump. Events
// queued on the same connection go out in queue order. If the send buffer
// is full the event is dropped and logged rather than blocking the caller.
func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("dropping event for user %d, send buffer full", c.user.Id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *Client) cleanup() {
	c.dispatcher.deregisterClient(c)
	c.stopClient()
}
