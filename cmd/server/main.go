package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocql/gocql"

	"messenger-service/internal/broker/kafka"
	"messenger-service/internal/config"
	"messenger-service/internal/httpapi"
	"messenger-service/internal/messenger"
	"messenger-service/internal/obs"
	"messenger-service/internal/storage/memory"
	"messenger-service/internal/storage/scylla"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger := obs.NewLogger("dev")
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	var store messenger.Storage
	var session *gocql.Session
	switch cfg.StorageMode {
	case "memory":
		logger.Warn("using in-memory storage, data will not survive restarts")
		store = memory.NewStore()
	default:
		session, err = scylla.NewSession(cfg, logger)
		if err != nil {
			logger.Error("scylla init failed", "error", err)
			os.Exit(1)
		}
		defer session.Close()
		store = scylla.NewStore(session, logger)
	}

	svc := &messenger.Service{Store: store, Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, nil)
		if err != nil {
			logger.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		svc.Events = producer
		logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	}

	obsMW := obs.Middleware{Logger: logger}
	health := obs.HealthHandlers{Ready: func() error {
		if session != nil && session.Closed() {
			return errors.New("scylla session closed")
		}
		return nil
	}}
	server := httpapi.NewServer(cfg, obsMW, health, httpapi.Handlers{
		Message:      httpapi.MessageHandler{Service: svc, Logger: logger},
		Conversation: httpapi.ConversationHandler{Service: svc, Logger: logger},
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("messenger-service starting", "addr", cfg.HTTPAddr, "env", cfg.Env, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("http server stopped")
			return
		}
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("messenger-service stopped")
}
