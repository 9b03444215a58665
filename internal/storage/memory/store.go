// Package memory implements messenger.Storage on process-local maps. It backs
// tests and STORAGE_MODE=memory runs; nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"messenger-service/internal/messenger"
)

type pairKey struct {
	lo, hi int64
}

func newPairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Store keeps conversation partitions and peer maps in memory.
type Store struct {
	mu           sync.RWMutex
	messages     map[int64][]messenger.Message
	peers        map[int64]map[int64]int64
	pairs        map[pairKey]int64
	participants map[int64][2]int64
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		messages:     make(map[int64][]messenger.Message),
		peers:        make(map[int64]map[int64]int64),
		pairs:        make(map[pairKey]int64),
		participants: make(map[int64][2]int64),
	}
}

// InsertMessage appends a row to the conversation partition, keeping the
// partition ordered newest first the way the clustering order would.
func (s *Store) InsertMessage(ctx context.Context, msg messenger.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append(s.messages[msg.ConversationID], msg)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) > 0
	})
	s.messages[msg.ConversationID] = rows
	return nil
}

func (s *Store) Messages(ctx context.Context, conversationID int64, before *time.Time, limit, offset int) ([]messenger.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]messenger.Message, 0, limit)
	skipped := 0
	for _, msg := range s.messages[conversationID] {
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CountMessages(ctx context.Context, conversationID int64, before *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if before == nil {
		return int64(len(s.messages[conversationID])), nil
	}
	var n int64
	for _, msg := range s.messages[conversationID] {
		if msg.CreatedAt.Before(*before) {
			n++
		}
	}
	return n, nil
}

func (s *Store) LatestMessage(ctx context.Context, conversationID int64) (messenger.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.messages[conversationID]
	if len(rows) == 0 {
		return messenger.Message{}, messenger.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) PeerMap(ctx context.Context, userID int64) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]int64, len(s.peers[userID]))
	for peerID, conversationID := range s.peers[userID] {
		out[peerID] = conversationID
	}
	return out, nil
}

func (s *Store) PutPeerEntry(ctx context.Context, userID, peerID, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peers[userID] == nil {
		s.peers[userID] = make(map[int64]int64)
	}
	s.peers[userID][peerID] = conversationID
	return nil
}

func (s *Store) ClaimConversationID(ctx context.Context, conversationID, userA, userB int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.participants[conversationID]; taken {
		return false, nil
	}
	s.participants[conversationID] = [2]int64{userA, userB}
	return true, nil
}

func (s *Store) ReservePair(ctx context.Context, userA, userB, conversationID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := newPairKey(userA, userB)
	if existing, ok := s.pairs[key]; ok {
		return existing, nil
	}
	s.pairs[key] = conversationID
	return conversationID, nil
}

func (s *Store) Participants(ctx context.Context, conversationID int64) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.participants[conversationID]
	if !ok {
		return 0, 0, messenger.ErrNotFound
	}
	return pair[0], pair[1], nil
}

var _ messenger.Storage = (*Store)(nil)
