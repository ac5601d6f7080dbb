package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/ingest"
	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/observability"
	"github.com/your-org/mediascan/internal/queue"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	dir := flag.String("dir", "", "directory to import media from")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: ingestor -dir <media directory> [-config <path>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting mediascan ingestor", "dir", *dir)

	objects, err := library.NewObjectStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := objects.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

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

	importer := ingest.NewImporter(lib, objects, producer)
	count, err := importer.ImportDir(context.Background(), *dir)
	if err != nil {
		slog.Error("import failed", "error", err, "imported", count)
		os.Exit(1)
	}

	slog.Info("import finished", "imported", count)
}
