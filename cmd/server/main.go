package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "podstream/internal/api/http"
	"podstream/internal/app"
	"podstream/internal/blobstore/gridfs"
	"podstream/internal/blobstore/s3"
	"podstream/internal/domain/ports"
	"podstream/internal/identity"
	"podstream/internal/media"
	"podstream/internal/metrics"
	mongorepo "podstream/internal/repository/mongo"
	"podstream/internal/telemetry"
	"podstream/internal/usecase"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.Init(context.Background(), "podstream", cfg.Environment)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "podstream"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("environment", cfg.Environment),
		slog.String("blobBackend", cfg.BlobBackend),
		slog.Int64("maxUploadBytes", cfg.MaxUploadBytes),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	mongoMonitor := otelmongo.NewMonitor()
	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(mongoMonitor))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	episodes := mongorepo.NewEpisodeRepository(mongoClient, cfg.MongoDatabase, cfg.EpisodesCollection)
	users := mongorepo.NewUserRepository(mongoClient, cfg.MongoDatabase, cfg.UsersCollection)
	if err := episodes.EnsureIndexes(ctx); err != nil {
		logger.Warn("episode index setup failed", slog.String("error", err.Error()))
	}
	if err := users.EnsureIndexes(ctx); err != nil {
		logger.Warn("user index setup failed", slog.String("error", err.Error()))
	}

	blobs, err := newBlobStore(ctx, cfg, mongoClient)
	if err != nil {
		logger.Error("blob store init failed",
			slog.String("backend", cfg.BlobBackend),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	tokens, err := identity.New(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	if err != nil {
		logger.Error("identity init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registerUC := usecase.RegisterUser{Users: users, HashPassword: identity.HashPassword, NewID: mongorepo.NewUserID, Now: time.Now}
	loginUC := usecase.LoginUser{Users: users, CheckPassword: identity.CheckPassword}
	createUC := usecase.CreateEpisode{
		Episodes:      episodes,
		Blobs:         blobs,
		ProbeDuration: media.ProbeDuration,
		NewID:         mongorepo.NewEpisodeID,
		Now:           time.Now,
	}
	deleteUC := usecase.DeleteEpisode{Episodes: episodes, Blobs: blobs, Logger: logger}
	listUC := usecase.ListEpisodes{Episodes: episodes, Users: users}
	getUC := usecase.GetEpisode{Episodes: episodes, Users: users}

	handler := apihttp.NewServer(registerUC,
		apihttp.WithLoginUser(loginUC),
		apihttp.WithCreateEpisode(createUC),
		apihttp.WithDeleteEpisode(deleteUC),
		apihttp.WithListEpisodes(listUC),
		apihttp.WithGetEpisode(getUC),
		apihttp.WithBlobStore(blobs),
		apihttp.WithTokens(tokens),
		apihttp.WithMaxUploadBytes(cfg.MaxUploadBytes),
		apihttp.WithEnvironment(cfg.Environment),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithDatabasePing(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}),
		apihttp.WithLogger(logger),
	)

	go updateEpisodeMetrics(rootCtx, episodes, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       0,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newBlobStore(ctx context.Context, cfg app.Config, mongoClient *mongo.Client) (ports.BlobStore, error) {
	switch cfg.BlobBackend {
	case "s3":
		store, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.BlobBucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "gridfs":
		return gridfs.New(mongoClient, cfg.MongoDatabase, cfg.BlobBucket)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// updateEpisodeMetrics refreshes the episode count gauge from the store.
func updateEpisodeMetrics(ctx context.Context, episodes *mongorepo.EpisodeRepository, logger *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	refresh := func() {
		countCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		count, err := episodes.Count(countCtx)
		if err != nil {
			logger.Debug("episode count failed", slog.String("error", err.Error()))
			return
		}
		metrics.EpisodesTotal.Set(float64(count))
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
