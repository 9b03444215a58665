package messenger

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound marks a missing conversation or unresolved participant pair.
// Storage implementations return it as-is; callers test with errors.Is.
var ErrNotFound = errors.New("messenger: not found")

// Storage is the set of point queries and partition scans the service is built
// on. Implementations exist for Scylla and for memory (tests, local runs).
type Storage interface {
	// InsertMessage appends one row to the conversation's history partition.
	InsertMessage(ctx context.Context, msg Message) error

	// Messages returns up to limit rows of the partition ordered by
	// (created_at desc, message_id desc), skipping offset rows. A non-nil
	// before restricts the scan to rows strictly older than it.
	Messages(ctx context.Context, conversationID int64, before *time.Time, limit, offset int) ([]Message, error)

	// CountMessages counts the partition's rows, restricted by before when
	// non-nil. A full partition scan; acceptable at the scale this runs at.
	CountMessages(ctx context.Context, conversationID int64, before *time.Time) (int64, error)

	// LatestMessage returns the newest row of the partition, or ErrNotFound
	// when the partition is empty.
	LatestMessage(ctx context.Context, conversationID int64) (Message, error)

	// PeerMap returns the user's peer-id -> conversation-id map. A user with
	// no row or no entries yields an empty map, not an error.
	PeerMap(ctx context.Context, userID int64) (map[int64]int64, error)

	// PutPeerEntry writes one entry of the user's peer map. Idempotent for a
	// given (userID, peerID, conversationID) triple.
	PutPeerEntry(ctx context.Context, userID, peerID, conversationID int64) error

	// ClaimConversationID records the id -> participant pair mapping if and
	// only if the id is unclaimed, reporting whether the claim applied.
	ClaimConversationID(ctx context.Context, conversationID, userA, userB int64) (bool, error)

	// ReservePair atomically assigns conversationID to the unordered user
	// pair unless an id was already assigned, and returns the id that won.
	ReservePair(ctx context.Context, userA, userB, conversationID int64) (int64, error)

	// Participants resolves a conversation id back to its two participants,
	// or ErrNotFound when the id was never claimed.
	Participants(ctx context.Context, conversationID int64) (int64, int64, error)
}

// Publisher receives best-effort notifications about newly stored messages.
type Publisher interface {
	MessageCreated(ctx context.Context, msg Message) error
}
