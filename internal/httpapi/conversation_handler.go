package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/httpapi/dto"
	"messenger-service/internal/messenger"
)

// ConversationHTTP exposes conversation endpoints.
type ConversationHTTP interface {
	Get(c *gin.Context)
	ListForUser(c *gin.Context)
	Create(c *gin.Context)
}

// ConversationHandler bridges HTTP with the messenger service.
type ConversationHandler struct {
	Service *messenger.Service
	Logger  *slog.Logger
}

// Get returns a single conversation summary.
func (h ConversationHandler) Get(c *gin.Context) {
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.Service.Conversation(c.Request.Context(), conversationID)
	if err != nil {
		respondError(c, h.Logger, err, "get conversation", "conversation_id", conversationID)
		return
	}
	c.JSON(http.StatusOK, toConversationDTO(summary))
}

// ListForUser returns one page of the user's conversations.
func (h ConversationHandler) ListForUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	result, err := h.Service.UserConversations(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.Logger, err, "list user conversations", "user_id", userID)
		return
	}
	out := dto.ConversationPage{
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
		Data:  make([]dto.Conversation, 0, len(result.Items)),
	}
	for _, summary := range result.Items {
		out.Data = append(out.Data, toConversationDTO(summary))
	}
	c.JSON(http.StatusOK, out)
}

// Create resolves or creates the conversation id for a pair of users.
func (h ConversationHandler) Create(c *gin.Context) {
	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.SenderID <= 0 || req.ReceiverID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender_id and receiver_id are required"})
		return
	}
	conversationID, err := h.Service.CreateOrGetConversation(c.Request.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		respondError(c, h.Logger, err, "create conversation", "sender_id", req.SenderID, "receiver_id", req.ReceiverID)
		return
	}
	c.JSON(http.StatusOK, dto.CreateConversationResponse{ConversationID: conversationID})
}

func toConversationDTO(summary messenger.ConversationSummary) dto.Conversation {
	return dto.Conversation{
		ID:                 summary.ID,
		User1ID:            summary.UserID,
		User2ID:            summary.PeerID,
		LastMessageAt:      summary.LastMessageAt,
		LastMessageContent: summary.LastMessageContent,
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error, action string, attrs ...any) {
	if errors.Is(err, messenger.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if logger != nil {
		logger.Error("messenger call failed", append([]any{"action", action, "error", err}, attrs...)...)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page := parsePositiveIntStrict(c.Query("page"), 1)
	limit := parsePositiveIntStrict(c.Query("limit"), messenger.DefaultPageSize)
	return page, limit
}

func parsePositiveIntStrict(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}

var _ ConversationHTTP = (*ConversationHandler)(nil)
