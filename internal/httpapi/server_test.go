package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/config"
	"messenger-service/internal/httpapi"
	"messenger-service/internal/httpapi/dto"
	"messenger-service/internal/messenger"
	"messenger-service/internal/obs"
	"messenger-service/internal/storage/memory"
)

func newTestServer() http.Handler {
	svc := &messenger.Service{Store: memory.NewStore()}
	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	server := httpapi.NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, httpapi.Handlers{
		Message:      httpapi.MessageHandler{Service: svc},
		Conversation: httpapi.ConversationHandler{Service: svc},
	})
	return server.Handler
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sendMessage(t *testing.T, handler http.Handler, sender, receiver int64, content string) dto.Message {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/messages", dto.SendMessageRequest{
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg dto.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	return msg
}

func TestSendMessageCreatesConversation(t *testing.T) {
	handler := newTestServer()

	msg := sendMessage(t, handler, 1, 2, "hello")
	assert.NotEmpty(t, msg.ID)
	assert.NotZero(t, msg.ConversationID)
	assert.Equal(t, int64(1), msg.SenderID)
	assert.Equal(t, int64(2), msg.ReceiverID)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestSendMessageValidation(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/messages", dto.SendMessageRequest{
		SenderID: 1, ReceiverID: 2, Content: "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/messages", dto.SendMessageRequest{
		ReceiverID: 2, Content: "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListConversationMessages(t *testing.T) {
	handler := newTestServer()

	first := sendMessage(t, handler, 1, 2, "A")
	sendMessage(t, handler, 2, 1, "B")
	sendMessage(t, handler, 1, 2, "C")

	rec := doJSON(t, handler, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d/messages?page=1&limit=2", first.ConversationID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page dto.MessagePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "C", page.Data[0].Content)
	assert.Equal(t, "B", page.Data[1].Content)
}

func TestListConversationMessagesEmpty(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/conversations/987654/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page dto.MessagePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Data)
}

func TestListMessagesBefore(t *testing.T) {
	handler := newTestServer()

	first := sendMessage(t, handler, 1, 2, "old")
	time.Sleep(5 * time.Millisecond)
	second := sendMessage(t, handler, 2, 1, "new")

	cutoff := second.CreatedAt.UTC().Format(time.RFC3339Nano)
	rec := doJSON(t, handler, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d/messages/before?before=%s", first.ConversationID, cutoff), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page dto.MessagePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "old", page.Data[0].Content)
}

func TestListMessagesBeforeRequiresTimestamp(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/conversations/1/messages/before", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/conversations/1/messages/before?before=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversation(t *testing.T) {
	handler := newTestServer()

	msg := sendMessage(t, handler, 3, 4, "latest text")
	rec := doJSON(t, handler, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d", msg.ConversationID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var conv dto.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, msg.ConversationID, conv.ID)
	assert.ElementsMatch(t, []int64{3, 4}, []int64{conv.User1ID, conv.User2ID})
	assert.Equal(t, "latest text", conv.LastMessageContent)
}

func TestGetConversationNotFound(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/conversations/55555", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversationInvalidID(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/conversations/zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateConversationIdempotent(t *testing.T) {
	handler := newTestServer()

	body := dto.CreateConversationRequest{SenderID: 1, ReceiverID: 2}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/conversations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var first dto.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotZero(t, first.ConversationID)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/conversations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var second dto.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestListUserConversations(t *testing.T) {
	handler := newTestServer()

	sendMessage(t, handler, 1, 2, "to 2")
	sendMessage(t, handler, 1, 3, "to 3")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/users/1/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page dto.ConversationPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Data, 2)
}

func TestListUserConversationsEmpty(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/users/42/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page dto.ConversationPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Data)
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
