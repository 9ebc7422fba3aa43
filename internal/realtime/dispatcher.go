package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/stats"
	"github.com/npezzotti/go-estately/internal/types"
)

const maxBodyLength = 5000

// Dispatcher owns the live connection server: it tracks every open
// connection, binds connections to user identities through the presence
// registry, persists chat messages sent over the live channel and routes
// events to the right connection. One dispatcher is constructed per process
// and handed to every component that needs to emit events.
type Dispatcher struct {
	log         *log.Logger
	db          database.EstatelyRepository
	stats       stats.StatsProvider
	presence    *PresenceRegistry
	clients     map[*Client]struct{}
	clientsLock sync.Mutex
	rooms       map[string]map[*Client]struct{}
	roomsLock   sync.Mutex

	broadcastChan chan *ServerEvent
	stop          chan struct{}
	done          chan struct{}
}

func NewDispatcher(logger *log.Logger, db database.EstatelyRepository, su stats.StatsProvider) (*Dispatcher, error) {
	d := &Dispatcher{
		log:           logger,
		db:            db,
		stats:         su,
		presence:      NewPresenceRegistry(),
		clients:       make(map[*Client]struct{}),
		rooms:         make(map[string]map[*Client]struct{}),
		broadcastChan: make(chan *ServerEvent, 256),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	su.RegisterMetric(stats.NumActiveConnections)
	su.RegisterMetric(stats.NumBoundUsers)
	su.RegisterMetric(stats.NumActiveRooms)
	su.RegisterMetric(stats.NumMessagesSent)
	su.RegisterMetric(stats.NumMessagesDeliveredLive)

	return d, nil
}

func (d *Dispatcher) Run() {
	for {
		select {
		case ev := <-d.broadcastChan:
			d.broadcast(ev)
		case <-d.stop:
			d.clientsLock.Lock()
			for c := range d.clients {
				c.stopClient()
			}
			d.clientsLock.Unlock()

			close(d.done)
			return
		}
	}
}

func (d *Dispatcher) Shutdown(ctx context.Context) error {
	close(d.stop)

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterClient adds a freshly upgraded connection. The connection is not
// yet bound to a user in the presence registry.
func (d *Dispatcher) RegisterClient(c *Client) {
	d.clientsLock.Lock()
	d.clients[c] = struct{}{}
	d.clientsLock.Unlock()

	d.stats.Incr(stats.NumActiveConnections)
	d.log.Printf("connection from user %d accepted", c.user.Id)
}

// deregisterClient runs when a connection closes for any reason. If the
// connection was still bound in the presence registry the user goes
// offline and everyone is told.
func (d *Dispatcher) deregisterClient(c *Client) {
	d.clientsLock.Lock()
	_, known := d.clients[c]
	delete(d.clients, c)
	d.clientsLock.Unlock()

	if !known {
		return
	}
	d.stats.Decr(stats.NumActiveConnections)
	d.leaveAllRooms(c)

	if userId, ok := d.presence.UnregisterClient(c); ok {
		d.stats.Decr(stats.NumBoundUsers)
		d.log.Printf("user %d went offline (connection closed)", userId)
		d.queueBroadcast(NewUserStatus(userId, StatusOffline))
	}
}

func (d *Dispatcher) broadcast(ev *ServerEvent) {
	d.clientsLock.Lock()
	defer d.clientsLock.Unlock()

	for c := range d.clients {
		if c == ev.SkipClient {
			continue
		}
		c.queueEvent(ev)
	}
}

func (d *Dispatcher) queueBroadcast(ev *ServerEvent) {
	select {
	case d.broadcastChan <- ev:
	default:
		d.log.Println("broadcast channel full, dropping event")
	}
}

// handleOnline binds the connection to its user. Re-declaring online on an
// already bound connection simply re-registers; a second connection for
// the same user silently replaces the first.
func (d *Dispatcher) handleOnline(c *Client, ev *ClientEvent) {
	if ev.Online.UserId != 0 && ev.Online.UserId != c.user.Id {
		d.log.Printf("user %d declared online as %d, ignoring declared id", c.user.Id, ev.Online.UserId)
	}

	if existed := d.presence.Register(c.user.Id, c); !existed {
		d.stats.Incr(stats.NumBoundUsers)
	}

	d.log.Printf("user %d is online", c.user.Id)
	d.queueBroadcast(NewUserStatus(c.user.Id, StatusOnline))
}

// handleOffline unbinds the user without closing the transport connection.
func (d *Dispatcher) handleOffline(c *Client, ev *ClientEvent) {
	if removed := d.presence.Unregister(c.user.Id); removed {
		d.stats.Decr(stats.NumBoundUsers)
		d.log.Printf("user %d went offline", c.user.Id)
		d.queueBroadcast(NewUserStatus(c.user.Id, StatusOffline))
	}
}

// handleSend persists an inbound chat message and routes it. The sender
// always gets an acknowledgment on success, whether or not the receiver is
// reachable; on a persistence failure the sender alone is told and nothing
// is delivered.
func (d *Dispatcher) handleSend(c *Client, ev *ClientEvent) {
	send := ev.Send
	if send.ReceiverId == 0 || len(send.Body) == 0 || len(send.Body) > maxBodyLength {
		c.queueEvent(NewMessageFailed(ev.Id, "invalid message"))
		return
	}

	msg, err := d.db.CreateMessage(database.CreateMessageParams{
		SenderId:   c.user.Id,
		ReceiverId: send.ReceiverId,
		PropertyId: send.PropertyId,
		Body:       send.Body,
	})
	if err != nil {
		d.log.Printf("persist message from user %d: %v", c.user.Id, err)
		c.queueEvent(NewMessageFailed(ev.Id, "failed to send message"))
		return
	}

	d.stats.Incr(stats.NumMessagesSent)
	c.queueEvent(NewMessageAccepted(ev.Id, msg.Id))

	d.deliverToUser(msg.ReceiverId, NewMessageReceived(apiMessage(msg)))
}

// handleTyping forwards a typing indicator to the receiver if they are
// bound. Nothing is persisted and a miss is not an error.
func (d *Dispatcher) handleTyping(c *Client, ev *ClientEvent) {
	rc, ok := d.presence.Lookup(ev.Typing.ReceiverId)
	if !ok {
		return
	}

	rc.queueEvent(&ServerEvent{
		BaseEvent: BaseEvent{Timestamp: Now()},
		Typing:    &Typing{IsTyping: ev.Typing.IsTyping},
	})
}

// deliverToUser queues ev on the user's live connection when one is bound.
// Absence of a connection is the common case and simply means no live
// notification goes out; the persisted store remains the source of truth.
func (d *Dispatcher) deliverToUser(userId int, ev *ServerEvent) bool {
	rc, ok := d.presence.Lookup(userId)
	if !ok {
		return false
	}

	if rc.queueEvent(ev) && ev.Received != nil {
		d.stats.Incr(stats.NumMessagesDeliveredLive)
	}

	return true
}

// NotifyMessageReceived tells the receiver about a message persisted over
// the REST path. Best-effort: the caller's operation has already committed.
func (d *Dispatcher) NotifyMessageReceived(msg types.Message) {
	d.deliverToUser(msg.ReceiverId, NewMessageReceived(msg))
}

// NotifyMessageRead tells the sender a single message of theirs was read.
func (d *Dispatcher) NotifyMessageRead(senderId, messageId int) {
	d.deliverToUser(senderId, NewMessageRead(messageId))
}

// NotifyMessagesRead tells peerId that readByUserId read their messages.
func (d *Dispatcher) NotifyMessagesRead(peerId, readByUserId int) {
	d.deliverToUser(peerId, NewMessagesRead(readByUserId))
}

// NotifyMessageDeleted tells userId a message in one of their
// conversations was deleted.
func (d *Dispatcher) NotifyMessageDeleted(userId, messageId int) {
	d.deliverToUser(userId, NewMessageDeleted(messageId))
}

// NotifyConversationDeleted tells userId their conversation with
// deletedByUserId was removed.
func (d *Dispatcher) NotifyConversationDeleted(userId, deletedByUserId int) {
	d.deliverToUser(userId, NewConversationDeleted(deletedByUserId))
}

// joinRoom and leaveRoom implement transport-level grouping only; rooms do
// not affect presence or message routing.
func (d *Dispatcher) joinRoom(c *Client, roomId string) {
	if roomId == "" {
		return
	}

	d.roomsLock.Lock()
	defer d.roomsLock.Unlock()

	room, ok := d.rooms[roomId]
	if !ok {
		room = make(map[*Client]struct{})
		d.rooms[roomId] = room
		d.stats.Incr(stats.NumActiveRooms)
	}
	room[c] = struct{}{}
}

func (d *Dispatcher) leaveRoom(c *Client, roomId string) {
	d.roomsLock.Lock()
	defer d.roomsLock.Unlock()

	room, ok := d.rooms[roomId]
	if !ok {
		return
	}

	delete(room, c)
	if len(room) == 0 {
		delete(d.rooms, roomId)
		d.stats.Decr(stats.NumActiveRooms)
	}
}

func (d *Dispatcher) leaveAllRooms(c *Client) {
	d.roomsLock.Lock()
	defer d.roomsLock.Unlock()

	for roomId, room := range d.rooms {
		if _, ok := room[c]; !ok {
			continue
		}

		delete(room, c)
		if len(room) == 0 {
			delete(d.rooms, roomId)
			d.stats.Decr(stats.NumActiveRooms)
		}
	}
}
