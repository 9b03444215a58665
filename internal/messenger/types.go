package messenger

import (
	"time"

	"github.com/gocql/gocql"
)

// Message is one exchanged text item. Messages are immutable once written.
type Message struct {
	ID             gocql.UUID
	ConversationID int64
	SenderID       int64
	ReceiverID     int64
	Content        string
	CreatedAt      time.Time
}

// ConversationSummary describes a conversation through its most recent message.
// UserID and PeerID are the two participants; when the summary was produced for
// a specific user's listing, UserID is that user.
type ConversationSummary struct {
	ID                 int64
	UserID             int64
	PeerID             int64
	LastMessageAt      time.Time
	LastMessageContent string
}

// MessagePage is one page of a conversation's history, newest first.
type MessagePage struct {
	Total int64
	Page  int
	Limit int
	Items []Message
}

// ConversationPage is one page of a user's conversation list.
type ConversationPage struct {
	Total int64
	Page  int
	Limit int
	Items []ConversationSummary
}

// CreateMessageInput carries the fields for sending a message.
// ConversationID zero means "resolve or create from the participant pair".
type CreateMessageInput struct {
	SenderID       int64
	ReceiverID     int64
	Content        string
	ConversationID int64
}
