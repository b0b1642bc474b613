package server

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/pipeline"
)

//go:embed static/index.html
var staticFS embed.FS

// DefaultShutdownTimeout bounds how long in-flight requests may run after
// the serve context is cancelled.
const DefaultShutdownTimeout = 30 * time.Second

// Server routes HTTP requests to the audit pipeline and the artifact store.
type Server struct {
	engine           *gin.Engine
	runner           pipeline.Runner
	store            artifact.Store
	preflight        func() error
	deleteOnDownload bool
	version          string
	logger           *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPreflight sets a check that runs before each audit. A non-nil error
// is sent to the client as the only event of the stream.
func WithPreflight(check func() error) Option {
	return func(s *Server) {
		s.preflight = check
	}
}

// WithDeleteOnDownload removes a report from the store once it has been
// downloaded.
func WithDeleteOnDownload(enabled bool) Option {
	return func(s *Server) {
		s.deleteOnDownload = enabled
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// New creates a Server. runner may be nil when the pipeline could not be
// built; every audit then fails with the preflight error.
func New(runner pipeline.Runner, store artifact.Store, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		store:   store,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors())

	r.GET("/", s.index)
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/stream", s.streamAudit)
		api.GET("/download/:ref", s.download)
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
