package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Name         string
	EmailAddress string
	PasswordHash string
	Phone        string
	Avatar       sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id         int
	SenderId   int
	ReceiverId int
	PropertyId sql.NullInt64
	Body       string
	Read       bool
	CreatedAt  time.Time
}

// ConversationSummary is one inbox row: the peer, the most recent message
// exchanged with them, and how many of their messages the viewer has not
// read yet.
type ConversationSummary struct {
	PeerId      int
	PeerName    string
	PeerAvatar  sql.NullString
	LastMessage Message
	UnreadCount int
}

type Property struct {
	Id           int
	ExternalId   string
	OwnerId      int
	Title        string
	Description  string
	PropertyType string
	Price        int64
	City         string
	Address      string
	Bedrooms     int
	Bathrooms    int
	Area         int
	Images       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateAccountParams struct {
	Name         string
	EmailAddress string
	PasswordHash string
	Phone        string
}

type UpdateAccountParams struct {
	UserId int
	Name   string
	Phone  string
	Avatar string
}

type CreateMessageParams struct {
	SenderId   int
	ReceiverId int
	PropertyId int
	Body       string
}

type CreatePropertyParams struct {
	ExternalId   string
	OwnerId      int
	Title        string
	Description  string
	PropertyType string
	Price        int64
	City         string
	Address      string
	Bedrooms     int
	Bathrooms    int
	Area         int
	Images       []string
}

type UpdatePropertyParams struct {
	Id           int
	Title        string
	Description  string
	PropertyType string
	Price        int64
	City         string
	Address      string
	Bedrooms     int
	Bathrooms    int
	Area         int
	Images       []string
}

type ListPropertiesParams struct {
	City         string
	PropertyType string
	MinPrice     int64
	MaxPrice     int64
	MinBedrooms  int
	Page         int
	Limit        int
}
