package dto

import "time"

// Message is the wire shape of one stored message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessagePage is a paginated message collection.
type MessagePage struct {
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Data  []Message `json:"data"`
}

// SendMessageRequest is the payload for posting a message. ConversationID is
// optional; when absent the conversation is resolved from the pair.
type SendMessageRequest struct {
	SenderID       int64  `json:"sender_id"`
	ReceiverID     int64  `json:"receiver_id"`
	Content        string `json:"content"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}
