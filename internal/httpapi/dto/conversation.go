package dto

import "time"

// Conversation summarizes a thread through its latest message.
type Conversation struct {
	ID                 int64     `json:"id"`
	User1ID            int64     `json:"user1_id"`
	User2ID            int64     `json:"user2_id"`
	LastMessageAt      time.Time `json:"last_message_at"`
	LastMessageContent string    `json:"last_message_content"`
}

// ConversationPage is a paginated conversation collection.
type ConversationPage struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Data  []Conversation `json:"data"`
}

// CreateConversationRequest resolves or creates a conversation for a pair.
type CreateConversationRequest struct {
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
}

// CreateConversationResponse carries the resolved conversation id.
type CreateConversationResponse struct {
	ConversationID int64 `json:"conversation_id"`
}
