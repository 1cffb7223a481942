// Package main runs the schedule beat: it fires the periodic price
// refresh and campaign fan-out jobs into the task queue. Exactly one
// beat instance should run at a time.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/mannyAndem/crypto-clone/internal/config"
	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/queue"
	"github.com/mannyAndem/crypto-clone/internal/scheduler"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file (optional)")
	flag.Parse()

	logger := log.New(os.Stdout, "[beat] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load(*envPath)

	broker, err := queue.NewBroker(cfg.AMQPURL)
	if err != nil {
		logger.Fatalf("Failed to connect to broker: %v", err)
	}
	defer broker.Close()

	publisher := queue.NewPublisher(broker)
	defer publisher.Close()

	var anchors scheduler.AnchorStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		anchors = scheduler.NewRedisAnchorStore(client)
	} else {
		logger.Println("No Redis configured, schedule anchors will not survive restarts")
		anchors = scheduler.NewMemoryAnchorStore()
	}

	entries := scheduler.Entries(cfg.PriceRefreshInterval, cfg.WalletFanoutInterval)
	beat := scheduler.NewBeat(entries, publisher, anchors, scheduler.BeatOptions{Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down", sig)
		cancel()
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("Metrics listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Printf("Metrics server stopped: %v", err)
		}
	}()

	logger.Printf("Beat started: price refresh every %s, wallet fan-out every %s",
		cfg.PriceRefreshInterval, cfg.WalletFanoutInterval)
	beat.Run(ctx)
	logger.Println("Beat stopped")
}
