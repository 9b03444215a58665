// Command seed fills the messenger keyspace with random users, conversations
// and message history for local development.
package main

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"messenger-service/internal/config"
	"messenger-service/internal/messenger"
	"messenger-service/internal/obs"
	"messenger-service/internal/storage/scylla"
)

var sampleMessages = []string{
	"Hello!",
	"How are you?",
	"What's up?",
	"Nice to meet you!",
	"How's your day going?",
	"Any plans for the weekend?",
	"Did you see that movie?",
	"Let's catch up soon!",
	"Thanks for the message!",
	"I'll get back to you later.",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := obs.NewLogger("dev")
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	numUsers := intFromEnv("SEED_USERS", 10)
	numConversations := intFromEnv("SEED_CONVERSATIONS", 15)
	maxMessages := intFromEnv("SEED_MAX_MESSAGES", 50)

	session, err := scylla.NewSession(cfg, logger)
	if err != nil {
		logger.Error("scylla init failed", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// backdated clock advancing per message so histories have a spread of
	// strictly increasing timestamps
	cursor := time.Now().UTC().Add(-24 * time.Hour)
	svc := &messenger.Service{
		Store:  scylla.NewStore(session, logger),
		Logger: logger,
		Now: func() time.Time {
			cursor = cursor.Add(time.Duration(1+rand.Intn(240)) * time.Second)
			return cursor
		},
	}

	ctx := context.Background()
	logger.Info("seeding test data", "users", numUsers, "conversations", numConversations, "max_messages", maxMessages)

	seeded := 0
	totalMessages := 0
	for i := 0; i < numConversations; i++ {
		user1 := int64(1 + rand.Intn(numUsers))
		user2 := int64(1 + rand.Intn(numUsers))
		if user1 == user2 {
			continue
		}
		conversationID, err := svc.CreateOrGetConversation(ctx, user1, user2)
		if err != nil {
			logger.Error("seed conversation failed", "error", err, "user1", user1, "user2", user2)
			os.Exit(1)
		}

		numMessages := 1 + rand.Intn(maxMessages)
		for m := 0; m < numMessages; m++ {
			sender, receiver := user1, user2
			if m%2 == 1 {
				sender, receiver = user2, user1
			}
			_, err := svc.CreateMessage(ctx, messenger.CreateMessageInput{
				SenderID:       sender,
				ReceiverID:     receiver,
				Content:        sampleMessages[rand.Intn(len(sampleMessages))],
				ConversationID: conversationID,
			})
			if err != nil {
				logger.Error("seed message failed", "error", err, "conversation_id", conversationID)
				os.Exit(1)
			}
		}
		seeded++
		totalMessages += numMessages
		logger.Info("conversation seeded", "conversation_id", conversationID, "user1", user1, "user2", user2, "messages", numMessages)
	}

	logger.Info("seeding complete", "conversations", seeded, "messages", totalMessages)
}

func intFromEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
