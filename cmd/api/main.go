package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/mediascan/internal/api"
	"github.com/your-org/mediascan/internal/api/ws"
	"github.com/your-org/mediascan/internal/cache"
	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/observability"
	"github.com/your-org/mediascan/internal/queue"
	"github.com/your-org/mediascan/internal/reconcile"
	"github.com/your-org/mediascan/internal/scan"
	"github.com/your-org/mediascan/internal/store"
	"github.com/your-org/mediascan/internal/swipe"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting mediascan API service", "port", cfg.Server.Port)

	// Connect to MinIO
	objects, err := library.NewObjectStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := objects.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Connect to Postgres: asset library plus the decision store on one pool
	lib, err := library.NewMediaLibrary(cfg.Database, objects, producer)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer lib.Close()

	if err := lib.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure asset schema", "error", err)
		os.Exit(1)
	}

	decisions := store.NewPostgresStoreWithPool(lib.Pool())
	if err := decisions.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure decision schema", "error", err)
		os.Exit(1)
	}

	// Decision cache: warm from the durable store before any scan runs
	decisionCache := cache.New(decisions, cfg.Cache)
	if err := decisionCache.Load(context.Background()); err != nil {
		slog.Warn("load decision cache", "error", err)
	}

	// WebSocket hub delivers scan events to clients
	hub := ws.NewHub()
	go hub.Run()

	svc := scan.New(lib, decisionCache, cfg.Scan, scan.MultiPublisher(hub, queue.NewScanEvents(producer)))
	ledger := swipe.NewLedger(decisionCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reconcile library changes (ingestor inserts, delete endpoints)
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create change consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	listener := reconcile.NewListener(consumer, svc)
	if err := listener.Start(ctx); err != nil {
		slog.Warn("start change consumer", "error", err)
	}

	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		Library:  lib,
		Objects:  objects,
		Producer: producer,
		Scan:     svc,
		Ledger:   ledger,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Flush pending decisions before the pool closes
	decisionCache.Close()

	slog.Info("API server stopped")
}
