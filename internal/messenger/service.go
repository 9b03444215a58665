package messenger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const (
	// DefaultPageSize applies when a caller passes a non-positive limit.
	DefaultPageSize = 20
	// MaxPageSize caps a single page to keep partition scans bounded.
	MaxPageSize = 200

	// conversation ids are 31-bit values cut from a random UUID; a handful of
	// claim attempts keeps the birthday-collision risk irrelevant in practice.
	maxIDAttempts = 5
)

// Service implements the conversation/message access operations on top of a
// Storage. Events and Logger are optional.
type Service struct {
	Store  Storage
	Events Publisher
	Logger *slog.Logger
	Now    func() time.Time
}

// CreateMessage stores one message, resolving or creating the conversation
// when the input does not name one. The returned message is the row as written.
func (s *Service) CreateMessage(ctx context.Context, in CreateMessageInput) (Message, error) {
	conversationID := in.ConversationID
	if conversationID == 0 {
		id, err := s.CreateOrGetConversation(ctx, in.SenderID, in.ReceiverID)
		if err != nil {
			return Message{}, err
		}
		conversationID = id
	}

	msg := Message{
		ID:             gocql.TimeUUID(),
		ConversationID: conversationID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Content:        in.Content,
		CreatedAt:      s.now(),
	}
	if err := s.Store.InsertMessage(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	s.publishCreated(ctx, msg)
	return msg, nil
}

// ConversationMessages returns one page of a conversation's history, newest
// first. An empty partition yields total zero and an empty page.
func (s *Service) ConversationMessages(ctx context.Context, conversationID int64, page, limit int) (MessagePage, error) {
	return s.messagePage(ctx, conversationID, nil, page, limit)
}

// MessagesBefore behaves like ConversationMessages restricted to rows strictly
// older than before.
func (s *Service) MessagesBefore(ctx context.Context, conversationID int64, before time.Time, page, limit int) (MessagePage, error) {
	cutoff := before.UTC()
	return s.messagePage(ctx, conversationID, &cutoff, page, limit)
}

func (s *Service) messagePage(ctx context.Context, conversationID int64, before *time.Time, page, limit int) (MessagePage, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	total, err := s.Store.CountMessages(ctx, conversationID, before)
	if err != nil {
		return MessagePage{}, fmt.Errorf("count messages in conversation %d: %w", conversationID, err)
	}
	items, err := s.Store.Messages(ctx, conversationID, before, limit, offset)
	if err != nil {
		return MessagePage{}, fmt.Errorf("list messages in conversation %d: %w", conversationID, err)
	}
	return MessagePage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

// UserConversations returns one page of the user's conversations ordered by
// conversation id, each enriched with its latest message. Total reflects the
// peer-map size; a conversation whose partition is empty is skipped.
func (s *Service) UserConversations(ctx context.Context, userID int64, page, limit int) (ConversationPage, error) {
	page, limit = normalizePage(page, limit)

	peers, err := s.Store.PeerMap(ctx, userID)
	if err != nil {
		return ConversationPage{}, fmt.Errorf("load conversations for user %d: %w", userID, err)
	}
	total := len(peers)
	out := ConversationPage{Total: int64(total), Page: page, Limit: limit, Items: []ConversationSummary{}}
	if total == 0 {
		return out, nil
	}

	type entry struct {
		peerID         int64
		conversationID int64
	}
	entries := make([]entry, 0, total)
	for peerID, conversationID := range peers {
		entries = append(entries, entry{peerID: peerID, conversationID: conversationID})
	}
	// map iteration order is unstable; page boundaries need a fixed total order
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].conversationID != entries[j].conversationID {
			return entries[i].conversationID < entries[j].conversationID
		}
		return entries[i].peerID < entries[j].peerID
	})

	offset := (page - 1) * limit
	if offset >= total {
		return out, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	for _, e := range entries[offset:end] {
		latest, err := s.Store.LatestMessage(ctx, e.conversationID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return ConversationPage{}, fmt.Errorf("load latest message of conversation %d: %w", e.conversationID, err)
		}
		out.Items = append(out.Items, ConversationSummary{
			ID:                 e.conversationID,
			UserID:             userID,
			PeerID:             e.peerID,
			LastMessageAt:      latest.CreatedAt,
			LastMessageContent: latest.Content,
		})
	}
	return out, nil
}

// Conversation returns the summary for a single conversation id. A
// conversation with no messages or with unresolvable participants reports
// ErrNotFound.
func (s *Service) Conversation(ctx context.Context, conversationID int64) (ConversationSummary, error) {
	latest, err := s.Store.LatestMessage(ctx, conversationID)
	if errors.Is(err, ErrNotFound) {
		return ConversationSummary{}, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return ConversationSummary{}, fmt.Errorf("load latest message of conversation %d: %w", conversationID, err)
	}
	userID, peerID, err := s.Store.Participants(ctx, conversationID)
	if errors.Is(err, ErrNotFound) {
		return ConversationSummary{}, fmt.Errorf("participants of conversation %d: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return ConversationSummary{}, fmt.Errorf("resolve participants of conversation %d: %w", conversationID, err)
	}
	return ConversationSummary{
		ID:                 conversationID,
		UserID:             userID,
		PeerID:             peerID,
		LastMessageAt:      latest.CreatedAt,
		LastMessageContent: latest.Content,
	}, nil
}

// CreateOrGetConversation returns the conversation id shared by the two users,
// minting one if the pair never exchanged a message. The pair reservation is
// conditional, so two concurrent first sends converge on a single id.
func (s *Service) CreateOrGetConversation(ctx context.Context, senderID, receiverID int64) (int64, error) {
	peers, err := s.Store.PeerMap(ctx, senderID)
	if err != nil {
		return 0, fmt.Errorf("load conversations for user %d: %w", senderID, err)
	}
	if id, ok := peers[receiverID]; ok {
		return id, nil
	}

	var candidate int64
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := mintConversationID()
		applied, err := s.Store.ClaimConversationID(ctx, id, senderID, receiverID)
		if err != nil {
			return 0, fmt.Errorf("claim conversation id: %w", err)
		}
		if applied {
			candidate = id
			break
		}
	}
	if candidate == 0 {
		return 0, fmt.Errorf("mint conversation id for users %d and %d: no unclaimed id after %d attempts", senderID, receiverID, maxIDAttempts)
	}

	conversationID, err := s.Store.ReservePair(ctx, senderID, receiverID, candidate)
	if err != nil {
		return 0, fmt.Errorf("reserve conversation for users %d and %d: %w", senderID, receiverID, err)
	}
	if conversationID != candidate && s.Logger != nil {
		s.Logger.Info("conversation creation race lost, adopting existing id",
			"candidate", candidate, "conversation_id", conversationID,
			"sender_id", senderID, "receiver_id", receiverID)
	}

	if err := s.Store.PutPeerEntry(ctx, senderID, receiverID, conversationID); err != nil {
		return 0, fmt.Errorf("update conversations of user %d: %w", senderID, err)
	}
	if err := s.Store.PutPeerEntry(ctx, receiverID, senderID, conversationID); err != nil {
		return 0, fmt.Errorf("update conversations of user %d: %w", receiverID, err)
	}
	return conversationID, nil
}

func (s *Service) publishCreated(ctx context.Context, msg Message) {
	if s.Events == nil {
		return
	}
	if err := s.Events.MessageCreated(ctx, msg); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to publish message event", "error", err, "conversation_id", msg.ConversationID)
	}
}

// now returns the write timestamp at the storage engine's precision.
func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Millisecond)
	}
	return time.Now().UTC().Truncate(time.Millisecond)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// mintConversationID cuts a 31-bit id from a random UUID, never zero since
// zero means "unset" in the create-message input.
func mintConversationID() int64 {
	for {
		raw := uuid.New()
		id := int64(binary.BigEndian.Uint32(raw[0:4]) & (1<<31 - 1))
		if id != 0 {
			return id
		}
	}
}
