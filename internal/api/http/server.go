package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"podstream/internal/domain"
	domainports "podstream/internal/domain/ports"
	"podstream/internal/identity"
	"podstream/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RegisterUserUseCase interface {
	Execute(ctx context.Context, input usecase.RegisterUserInput) (domain.UserRecord, error)
}

type LoginUserUseCase interface {
	Execute(ctx context.Context, input usecase.LoginUserInput) (domain.UserRecord, error)
}

type CreateEpisodeUseCase interface {
	Execute(ctx context.Context, input usecase.CreateEpisodeInput) (domain.EpisodeRecord, error)
}

type DeleteEpisodeUseCase interface {
	Execute(ctx context.Context, id domain.EpisodeID, requesterID domain.UserID) error
}

type ListEpisodesUseCase interface {
	Execute(ctx context.Context) ([]domain.EpisodeWithOwner, error)
}

type GetEpisodeUseCase interface {
	Execute(ctx context.Context, id domain.EpisodeID) (domain.EpisodeWithOwner, error)
}

// TokenVerifier authenticates bearer tokens and issues new ones after
// register/login.
type TokenVerifier interface {
	IssueToken(userID domain.UserID, email, name string) (string, error)
	VerifyToken(token string) (identity.Principal, error)
}

type Server struct {
	registerUser   RegisterUserUseCase
	loginUser      LoginUserUseCase
	createEpisode  CreateEpisodeUseCase
	deleteEpisode  DeleteEpisodeUseCase
	listEpisodes   ListEpisodesUseCase
	getEpisode     GetEpisodeUseCase
	blobs          domainports.BlobStore
	tokens         TokenVerifier
	maxUploadBytes int64
	environment    string
	allowedOrigins []string
	pingDB         func(ctx context.Context) error
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithLoginUser(uc LoginUserUseCase) ServerOption {
	return func(s *Server) {
		s.loginUser = uc
	}
}

func WithCreateEpisode(uc CreateEpisodeUseCase) ServerOption {
	return func(s *Server) {
		s.createEpisode = uc
	}
}

func WithDeleteEpisode(uc DeleteEpisodeUseCase) ServerOption {
	return func(s *Server) {
		s.deleteEpisode = uc
	}
}

func WithListEpisodes(uc ListEpisodesUseCase) ServerOption {
	return func(s *Server) {
		s.listEpisodes = uc
	}
}

func WithGetEpisode(uc GetEpisodeUseCase) ServerOption {
	return func(s *Server) {
		s.getEpisode = uc
	}
}

func WithBlobStore(store domainports.BlobStore) ServerOption {
	return func(s *Server) {
		s.blobs = store
	}
}

func WithTokens(tokens TokenVerifier) ServerOption {
	return func(s *Server) {
		s.tokens = tokens
	}
}

// WithMaxUploadBytes caps the total size of episode upload requests.
func WithMaxUploadBytes(limit int64) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

// WithEnvironment controls whether 500 responses carry error detail.
// Anything other than "production" is treated as development.
func WithEnvironment(env string) ServerOption {
	return func(s *Server) {
		s.environment = strings.ToLower(strings.TrimSpace(env))
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDatabasePing supplies the connectivity check reported by the root
// info endpoint.
func WithDatabasePing(ping func(ctx context.Context) error) ServerOption {
	return func(s *Server) {
		s.pingDB = ping
	}
}

const defaultMaxUploadBytes = 50 << 20

func NewServer(register RegisterUserUseCase, opts ...ServerOption) *Server {
	s := &Server{
		registerUser:   register,
		maxUploadBytes: defaultMaxUploadBytes,
		environment:    "development",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/podcasts", s.handlePodcasts)
	mux.HandleFunc("/api/podcast", s.handlePodcastCreate)
	mux.HandleFunc("/api/podcast/", s.handlePodcastByID)
	mux.HandleFunc("/api/files/audio/", s.handleAudioFile)
	mux.HandleFunc("/api/files/image/", s.handleImageFile)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "podstream",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(s.allowedOrigins, requestIDMiddleware(traced)))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	database := "unconfigured"
	if s.pingDB != nil {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pingDB(pingCtx); err != nil {
			database = "disconnected"
		} else {
			database = "connected"
		}
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]string{
			"service":   "podstream",
			"status":    "ok",
			"database":  database,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case s.wsHub.register <- client:
	case <-s.wsHub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// BroadcastLibrary pushes the current episode list to all connected
// websocket clients. Called after successful create and delete.
func (s *Server) BroadcastLibrary(ctx context.Context) {
	if s.wsHub == nil || s.listEpisodes == nil {
		return
	}
	episodes, err := s.listEpisodes.Execute(ctx)
	if err != nil {
		s.logger.Debug("ws library broadcast failed", slog.String("error", err.Error()))
		return
	}
	summaries := make([]episodeSummary, 0, len(episodes))
	for _, ep := range episodes {
		summaries = append(summaries, toEpisodeSummary(ep))
	}
	s.wsHub.Broadcast("episodes", summaries)
}

// Close shuts down the websocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
