package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/httpapi/dto"
	"messenger-service/internal/messenger"
)

// MessageHTTP exposes message endpoints.
type MessageHTTP interface {
	Send(c *gin.Context)
	ListConversationMessages(c *gin.Context)
	ListMessagesBefore(c *gin.Context)
}

// MessageHandler bridges HTTP with the messenger service.
type MessageHandler struct {
	Service *messenger.Service
	Logger  *slog.Logger
}

// Send stores a message, creating the conversation when the payload names none.
func (h MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.SenderID <= 0 || req.ReceiverID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender_id and receiver_id are required"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if req.ConversationID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}

	msg, err := h.Service.CreateMessage(c.Request.Context(), messenger.CreateMessageInput{
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		respondError(c, h.Logger, err, "send message", "sender_id", req.SenderID, "receiver_id", req.ReceiverID)
		return
	}
	c.JSON(http.StatusCreated, toMessageDTO(msg))
}

// ListConversationMessages returns one page of a conversation's history.
func (h MessageHandler) ListConversationMessages(c *gin.Context) {
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	result, err := h.Service.ConversationMessages(c.Request.Context(), conversationID, page, limit)
	if err != nil {
		respondError(c, h.Logger, err, "list messages", "conversation_id", conversationID)
		return
	}
	c.JSON(http.StatusOK, toMessagePageDTO(result))
}

// ListMessagesBefore returns one page of messages strictly older than the
// `before` query timestamp.
func (h MessageHandler) ListMessagesBefore(c *gin.Context) {
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("before"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before timestamp is required"})
		return
	}
	before, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
		return
	}
	page, limit := pageParams(c)

	result, err := h.Service.MessagesBefore(c.Request.Context(), conversationID, before, page, limit)
	if err != nil {
		respondError(c, h.Logger, err, "list messages before", "conversation_id", conversationID)
		return
	}
	c.JSON(http.StatusOK, toMessagePageDTO(result))
}

func toMessageDTO(msg messenger.Message) dto.Message {
	return dto.Message{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func toMessagePageDTO(page messenger.MessagePage) dto.MessagePage {
	out := dto.MessagePage{
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Data:  make([]dto.Message, 0, len(page.Items)),
	}
	for _, msg := range page.Items {
		out.Data = append(out.Data, toMessageDTO(msg))
	}
	return out
}

var _ MessageHTTP = (*MessageHandler)(nil)
