package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wtag-io/wtag/pkg/api"
	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/config"
	"github.com/wtag-io/wtag/pkg/images"
	"github.com/wtag-io/wtag/pkg/imaging"
	"github.com/wtag-io/wtag/pkg/maintenance"
	"github.com/wtag-io/wtag/pkg/observability"
	"github.com/wtag-io/wtag/pkg/storage"
	"github.com/wtag-io/wtag/pkg/storage/postgres"
	"github.com/wtag-io/wtag/pkg/storage/s3"
	"github.com/wtag-io/wtag/pkg/tags"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Logging.Level), os.Stdout)
	ctx := context.Background()

	var (
		identity storage.IdentityStore
		content  storage.ContentStore
		blobs    storage.BlobStore
		health   map[string]observability.Pinger
		cleanup  []func(context.Context) error
	)

	switch cfg.Storage.Type {
	case "postgres":
		db, err := postgres.Connect(postgres.ConnectionConfig{
			URL:      cfg.Storage.PostgresURL,
			MaxConns: cfg.Storage.PostgresMaxConns,
			MinConns: cfg.Storage.PostgresMinConns,
			Timeout:  cfg.Storage.PostgresTimeout,
		})
		if err != nil {
			logger.WithError(err).Error("connecting to postgres")
			os.Exit(1)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			logger.WithError(err).Error("running migrations")
			os.Exit(1)
		}

		blobStore, err := s3.NewBlobStore(ctx, s3.Config{
			Endpoint:      cfg.Storage.S3Endpoint,
			Region:        cfg.Storage.S3Region,
			Bucket:        cfg.Storage.S3Bucket,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			UsePathStyle:  cfg.Storage.S3UsePathStyle,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
		if err != nil {
			logger.WithError(err).Error("connecting to s3")
			os.Exit(1)
		}

		identity = postgres.NewIdentityStore(db)
		content = postgres.NewContentStore(db)
		blobs = blobStore
		health = map[string]observability.Pinger{
			"postgres": observability.PingFunc(db.PingContext),
			"s3":       blobStore,
		}
		cleanup = append(cleanup, func(context.Context) error { return db.Close() })

	case "memory":
		mem := storage.NewMemoryStore(cfg.Storage.S3PublicBaseURL)
		identity, content, blobs = mem, mem, mem
		health = map[string]observability.Pinger{}
		logger.Warn("memory storage selected; all data is volatile")

	default:
		logger.Errorf("unknown storage type %q", cfg.Storage.Type)
		os.Exit(1)
	}

	engine := auth.NewEngine(identity, auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret)), auth.DefaultPermissions())
	registry := tags.NewRegistry(engine, content)
	catalog := images.NewCatalog(engine, registry, content, blobs, imaging.NewCodec(), cfg.Images.ThumbnailSize, logger)

	opts := api.Options{
		Health:       observability.NewHealthChecker(health),
		MaxBodyBytes: cfg.Server.MaxUploadBytes,
	}
	if cfg.Logging.MetricsEnabled {
		promRegistry := prometheus.NewRegistry()
		opts.Metrics = observability.NewMetrics(promRegistry)
		opts.MetricsHandler = observability.MetricsHandler(promRegistry)
	}
	server := api.NewServer(engine, registry, catalog, logger, opts)

	if spec := cfg.Schedule.MaintenanceCron; spec != "" {
		scheduler, err := maintenance.NewScheduler(spec, catalog, logger, opts.Metrics)
		if err != nil {
			logger.WithError(err).Error("invalid maintenance schedule")
			os.Exit(1)
		}
		scheduler.Start()
		cleanup = append(cleanup, scheduler.Stop)
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	for _, fn := range cleanup {
		shutdown.Register(fn)
	}

	go func() {
		logger.Infof("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		os.Exit(1)
	}
}
