package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"crm-backend/internal/config"
	"crm-backend/internal/crm"
	"crm-backend/internal/jobs"
	kafkax "crm-backend/internal/kafka"
	"crm-backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	n := &jobs.Notifier{Redis: rdb, LogPath: cfg.NotificationsLog, Log: log}

	group := getenv("NOTIFIER_GROUP", "crm-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	topics := []string{crm.TopicCustomerCreated, crm.TopicOrderCreated, crm.TopicProductRestocked}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers, log)

	go func() {
		log.Info("notifier consumer started",
			zap.String("group", group), zap.Strings("topics", topics), zap.Int("workers", workers))
		if err := cons.Start(ctx, n.HandleEvent); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down notifier")
	cancel()
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
