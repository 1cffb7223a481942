// Package main runs the monitoring workers: consumers that execute the
// price refresh, campaign fan-out, and wallet check jobs from the task
// queue. Multiple worker instances can run concurrently; the transaction
// store's signature constraint keeps their effects exactly-once.
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
	"github.com/mannyAndem/crypto-clone/internal/monitor"
	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/pricing"
	"github.com/mannyAndem/crypto-clone/internal/queue"
	"github.com/mannyAndem/crypto-clone/internal/solana"
	"github.com/mannyAndem/crypto-clone/internal/storage"
	"github.com/mannyAndem/crypto-clone/internal/storage/memory"
	pgstore "github.com/mannyAndem/crypto-clone/internal/storage/postgres"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load(*envPath)

	if !*useMemory && cfg.PostgresDSN == "" {
		logger.Fatal("POSTGRES_DSN is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down", sig)
		cancel()
	}()

	var campaigns storage.CampaignStore
	var transactions storage.TransactionStore
	if *useMemory {
		logger.Println("Using in-memory storage")
		campaigns = memory.NewCampaignStore()
		transactions = memory.NewTransactionStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pool.Close()
		campaigns = pgstore.NewCampaignStore(pool)
		transactions = pgstore.NewTransactionStore(pool)
	}

	var rates pricing.RateStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		rates = pricing.NewRedisSnapshot(client)
	} else {
		logger.Println("No Redis configured, rate snapshot is process-local")
		rates = pricing.NewSnapshot()
	}

	prices := pricing.NewChainSource(logger,
		pricing.NewDexScreenerSource("", ""),
		pricing.NewCoinGeckoSource(""),
	)

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)

	broker, err := queue.NewBroker(cfg.AMQPURL)
	if err != nil {
		logger.Fatalf("Failed to connect to broker: %v", err)
	}
	defer broker.Close()

	publisher := queue.NewPublisher(broker)
	defer publisher.Close()

	refresher := monitor.NewRefresher(prices, rates, logger)
	dispatcher := monitor.NewDispatcher(campaigns, publisher, logger)
	ingester := monitor.NewIngester(rpc, transactions, prices, logger)

	pool := queue.NewPool(broker, publisher, queue.PoolOptions{
		Workers:          cfg.Workers,
		MaxJobsPerWorker: cfg.MaxJobsPerWorker,
		Logger:           logger,
	})
	pool.Register(queue.TypePriceRefresh, refresher.Handle)
	pool.Register(queue.TypeWalletFanout, dispatcher.Handle)
	pool.Register(queue.TypeWalletCheck, ingester.Handle)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("Metrics listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Printf("Metrics server stopped: %v", err)
		}
	}()

	reporter := monitor.NewStatusReporter(campaigns, rates, logger)
	reporter.LogStartup(ctx)

	pool.Run(ctx)
	logger.Println("Worker stopped")
}
