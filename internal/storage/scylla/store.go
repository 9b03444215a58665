package scylla

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"

	"messenger-service/internal/messenger"
)

// Store implements messenger.Storage on a Scylla session. Reads go at
// consistency One, writes at Quorum, conversation reservation through
// lightweight transactions.
type Store struct {
	session *gocql.Session
	logger  *slog.Logger
}

// NewStore builds a Store.
func NewStore(session *gocql.Session, logger *slog.Logger) *Store {
	return &Store{session: session, logger: logger}
}

// InsertMessage appends one row to the conversation partition.
func (s *Store) InsertMessage(ctx context.Context, msg messenger.Message) error {
	if s.session == nil {
		return errors.New("scylla session not initialized")
	}
	return s.session.
		Query(`INSERT INTO messages (conversation_id, created_at, message_id, sender_id, receiver_id, content) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ConversationID, msg.CreatedAt, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

// Messages scans the partition newest first, skipping offset rows client-side
// since CQL has no OFFSET.
func (s *Store) Messages(ctx context.Context, conversationID int64, before *time.Time, limit, offset int) ([]messenger.Message, error) {
	if s.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	var iter *gocql.Iter
	if before != nil {
		iter = s.session.
			Query(`SELECT conversation_id, created_at, message_id, sender_id, receiver_id, content FROM messages WHERE conversation_id = ? AND created_at < ? ORDER BY created_at DESC, message_id DESC LIMIT ?`,
				conversationID, *before, offset+limit).
			WithContext(ctx).
			Consistency(gocql.One).
			Iter()
	} else {
		iter = s.session.
			Query(`SELECT conversation_id, created_at, message_id, sender_id, receiver_id, content FROM messages WHERE conversation_id = ? ORDER BY created_at DESC, message_id DESC LIMIT ?`,
				conversationID, offset+limit).
			WithContext(ctx).
			Consistency(gocql.One).
			Iter()
	}

	messages := make([]messenger.Message, 0, limit)
	var (
		cID       int64
		createdAt time.Time
		messageID gocql.UUID
		senderID  int64
		recvID    int64
		content   string
	)
	skipped := 0
	for iter.Scan(&cID, &createdAt, &messageID, &senderID, &recvID, &content) {
		if skipped < offset {
			skipped++
			continue
		}
		if len(messages) == limit {
			break
		}
		messages = append(messages, messenger.Message{
			ID:             messageID,
			ConversationID: cID,
			SenderID:       senderID,
			ReceiverID:     recvID,
			Content:        content,
			CreatedAt:      createdAt,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return messages, nil
}

// CountMessages counts the partition's rows. Full partition scan on the
// server; the limit lives with the small conversation sizes this serves.
func (s *Store) CountMessages(ctx context.Context, conversationID int64, before *time.Time) (int64, error) {
	if s.session == nil {
		return 0, errors.New("scylla session not initialized")
	}
	var count int64
	var err error
	if before != nil {
		err = s.session.
			Query(`SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND created_at < ?`, conversationID, *before).
			WithContext(ctx).
			Consistency(gocql.One).
			Scan(&count)
	} else {
		err = s.session.
			Query(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).
			WithContext(ctx).
			Consistency(gocql.One).
			Scan(&count)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LatestMessage returns the newest row of the partition.
func (s *Store) LatestMessage(ctx context.Context, conversationID int64) (messenger.Message, error) {
	if s.session == nil {
		return messenger.Message{}, errors.New("scylla session not initialized")
	}
	var row messenger.Message
	err := s.session.
		Query(`SELECT conversation_id, created_at, message_id, sender_id, receiver_id, content FROM messages WHERE conversation_id = ? ORDER BY created_at DESC, message_id DESC LIMIT 1`,
			conversationID).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&row.ConversationID, &row.CreatedAt, &row.ID, &row.SenderID, &row.ReceiverID, &row.Content)
	if err == gocql.ErrNotFound {
		return messenger.Message{}, messenger.ErrNotFound
	}
	if err != nil {
		return messenger.Message{}, err
	}
	return row, nil
}

// PeerMap loads the user's conversations map; a missing user row reads as an
// empty map.
func (s *Store) PeerMap(ctx context.Context, userID int64) (map[int64]int64, error) {
	if s.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	peers := make(map[int64]int64)
	err := s.session.
		Query(`SELECT conversations FROM users WHERE user_id = ?`, userID).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&peers)
	if err == gocql.ErrNotFound {
		return map[int64]int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return peers, nil
}

// PutPeerEntry upserts a single map entry on the user row.
func (s *Store) PutPeerEntry(ctx context.Context, userID, peerID, conversationID int64) error {
	if s.session == nil {
		return errors.New("scylla session not initialized")
	}
	return s.session.
		Query(`UPDATE users SET conversations[?] = ? WHERE user_id = ?`, peerID, conversationID, userID).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

// ClaimConversationID records id ownership with a conditional insert so a
// colliding random id is rejected instead of silently merging two pairs.
func (s *Store) ClaimConversationID(ctx context.Context, conversationID, userA, userB int64) (bool, error) {
	if s.session == nil {
		return false, errors.New("scylla session not initialized")
	}
	applied, err := s.session.
		Query(`INSERT INTO conversation_participants (conversation_id, user_a, user_b) VALUES (?, ?, ?) IF NOT EXISTS`,
			conversationID, userA, userB).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ReservePair conditionally assigns the id to the unordered pair and returns
// the assignment that won, which may belong to a concurrent creator.
func (s *Store) ReservePair(ctx context.Context, userA, userB, conversationID int64) (int64, error) {
	if s.session == nil {
		return 0, errors.New("scylla session not initialized")
	}
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	previous := map[string]interface{}{}
	applied, err := s.session.
		Query(`INSERT INTO conversation_pairs (user_lo, user_hi, conversation_id) VALUES (?, ?, ?) IF NOT EXISTS`,
			lo, hi, conversationID).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		MapScanCAS(previous)
	if err != nil {
		return 0, err
	}
	if applied {
		return conversationID, nil
	}
	existing, ok := previous["conversation_id"].(int64)
	if !ok {
		return 0, errors.New("conversation_pairs row missing conversation_id")
	}
	if s.logger != nil {
		s.logger.Debug("pair already reserved", "user_lo", lo, "user_hi", hi, "conversation_id", existing)
	}
	return existing, nil
}

// Participants resolves a conversation id to its pair via the lookup table
// written at creation time.
func (s *Store) Participants(ctx context.Context, conversationID int64) (int64, int64, error) {
	if s.session == nil {
		return 0, 0, errors.New("scylla session not initialized")
	}
	var userA, userB int64
	err := s.session.
		Query(`SELECT user_a, user_b FROM conversation_participants WHERE conversation_id = ?`, conversationID).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&userA, &userB)
	if err == gocql.ErrNotFound {
		return 0, 0, messenger.ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	return userA, userB, nil
}

var _ messenger.Storage = (*Store)(nil)
