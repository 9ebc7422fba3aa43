package realtime

import (
	"time"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/types"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type BaseEvent struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientEvent is the envelope for everything a client may send over the
// live channel. Exactly one of the event fields is expected to be set.
type ClientEvent struct {
	BaseEvent
	Online  *DeclareOnline  `json:"declare_online,omitempty"`
	Offline *DeclareOffline `json:"declare_offline,omitempty"`
	Send    *SendMessage    `json:"send_message,omitempty"`
	Typing  *Typing         `json:"typing,omitempty"`
	Join    *JoinRoom       `json:"join_room,omitempty"`
	Leave   *LeaveRoom      `json:"leave_room,omitempty"`
}

type DeclareOnline struct {
	UserId int `json:"user_id"`
}

type DeclareOffline struct {
	UserId int `json:"user_id"`
}

type SendMessage struct {
	ReceiverId int    `json:"receiver_id"`
	Body       string `json:"body"`
	PropertyId int    `json:"property_id,omitempty"`
}

type Typing struct {
	ReceiverId int  `json:"receiver_id,omitempty"`
	IsTyping   bool `json:"is_typing"`
}

type JoinRoom struct {
	RoomId string `json:"room_id"`
}

type LeaveRoom struct {
	RoomId string `json:"room_id"`
}

// ServerEvent is the envelope for everything the dispatcher emits to a
// live connection.
type ServerEvent struct {
	BaseEvent
	Accepted            *MessageAccepted     `json:"message_accepted,omitempty"`
	Received            *MessageReceived     `json:"message_received,omitempty"`
	Failed              *MessageFailed       `json:"message_failed,omitempty"`
	Typing              *Typing              `json:"typing,omitempty"`
	UserStatus          *UserStatus          `json:"user_status,omitempty"`
	MessageRead         *MessageRead         `json:"message_read,omitempty"`
	MessagesRead        *MessagesRead        `json:"messages_read,omitempty"`
	MessageDeleted      *MessageDeleted      `json:"message_deleted,omitempty"`
	ConversationDeleted *ConversationDeleted `json:"conversation_deleted,omitempty"`
	SkipClient          *Client              `json:"-"`
}

type MessageAccepted struct {
	MessageId int `json:"message_id"`
}

type MessageReceived struct {
	Message types.Message `json:"message"`
}

type MessageFailed struct {
	Error string `json:"error"`
}

type UserStatus struct {
	UserId int    `json:"user_id"`
	Status string `json:"status"`
}

type MessageRead struct {
	MessageId int `json:"message_id"`
}

type MessagesRead struct {
	ReadByUserId int `json:"read_by_user_id"`
}

type MessageDeleted struct {
	MessageId int `json:"message_id"`
}

type ConversationDeleted struct {
	DeletedByUserId int `json:"deleted_by_user_id"`
}

func NewMessageAccepted(id, messageId int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Accepted: &MessageAccepted{MessageId: messageId},
	}
}

func NewMessageReceived(msg types.Message) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		Received: &MessageReceived{Message: msg},
	}
}

func NewMessageFailed(id int, reason string) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Id:        id,
			Timestamp: Now(),
		},
		Failed: &MessageFailed{Error: reason},
	}
}

func NewUserStatus(userId int, status string) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		UserStatus: &UserStatus{UserId: userId, Status: status},
	}
}

func NewMessageRead(messageId int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		MessageRead: &MessageRead{MessageId: messageId},
	}
}

func NewMessagesRead(readByUserId int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		MessagesRead: &MessagesRead{ReadByUserId: readByUserId},
	}
}

func NewMessageDeleted(messageId int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		MessageDeleted: &MessageDeleted{MessageId: messageId},
	}
}

func NewConversationDeleted(deletedByUserId int) *ServerEvent {
	return &ServerEvent{
		BaseEvent: BaseEvent{
			Timestamp: Now(),
		},
		ConversationDeleted: &ConversationDeleted{DeletedByUserId: deletedByUserId},
	}
}

// apiMessage maps a stored message to its wire representation.
func apiMessage(m database.Message) types.Message {
	msg := types.Message{
		Id:         m.Id,
		SenderId:   m.SenderId,
		ReceiverId: m.ReceiverId,
		Body:       m.Body,
		Read:       m.Read,
		Timestamp:  m.CreatedAt,
	}
	if m.PropertyId.Valid {
		msg.PropertyId = int(m.PropertyId.Int64)
	}

	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
