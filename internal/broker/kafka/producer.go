// Package kafka publishes message-created events for downstream consumers.
// Publishing is best-effort; the write path never fails on broker errors.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"messenger-service/internal/messenger"
)

const createdTopic = "messenger.messages.created"

type Producer struct {
	sync  sarama.SyncProducer
	topic string
}

func NewProducer(brokers []string, topicPrefix string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync, topic: topicPrefix + createdTopic}, nil
}

type messageCreatedEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageCreated emits one event per stored message, keyed by conversation so
// a partition preserves per-conversation order.
func (p *Producer) MessageCreated(ctx context.Context, msg messenger.Message) error {
	payload, err := json.Marshal(messageCreatedEvent{
		MessageID:      msg.ID.String(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, _, err = p.sync.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(msg.ConversationID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

var _ messenger.Publisher = (*Producer)(nil)
