package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/coap2mqtt-bridge/internal/bridge"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/config"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests before forcing the listener down.
const gracefulShutdownTimeout = 10 * time.Second

// Logger is the narrow structured-logging capability this package depends
// on, matching internal/bridge.Logger so a single *logging.Logger
// satisfies both without either package importing slog directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  Logger
	Group   *bridge.Group
	Version string
}

// Server is the optional operator HTTP surface. It is created with New and
// started with Start; Close shuts it down gracefully.
type Server struct {
	cfg     config.APIConfig
	logger  Logger
	group   *bridge.Group
	version string

	hub       *Hub
	startTime time.Time
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates an API server. The server is not started until Start is
// called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Group == nil {
		return nil, errors.New("api: bridge group is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		group:     deps.Group,
		version:   deps.Version,
		hub:       newHub(deps.Logger),
		startTime: time.Now(),
	}, nil
}

// Hub returns the server's WebSocket hub, so the composition root can wire
// it into bridge.ConnectionConfig.Broadcaster before Start is called.
func (s *Server) Hub() *Hub { return s.hub }

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server starting", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the HTTP listener and the WebSocket hub.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}
