package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id         int       `json:"id"`
	SenderId   int       `json:"sender_id"`
	ReceiverId int       `json:"receiver_id"`
	PropertyId int       `json:"property_id,omitempty"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConversationSummary is the derived inbox row for one peer. It is never
// persisted; it is recomputed from the message store on demand.
type ConversationSummary struct {
	Peer        User    `json:"peer"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

type Property struct {
	Id           int       `json:"id"`
	ExternalId   string    `json:"external_id"`
	OwnerId      int       `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PropertyType string    `json:"property_type"`
	Price        int64     `json:"price"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Area         int       `json:"area"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}
