package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sigrams/livevalidate/pkg/middleware"
	"github.com/sigrams/livevalidate/pkg/pages"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// Server serves pages and their validation sessions.
type Server struct {
	config   *ServerConfig
	store    pages.Store
	checker  *validate.Checker
	sessions *SessionManager
	upgrader websocket.Upgrader
	chain    middleware.Chain
	router   chi.Router
	logger   *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listenAddr net.Addr
}

// New creates a Server reading pages from store.
func New(store pages.Store, config *ServerConfig) *Server {
	config = config.withDefaults()
	logger := config.Logger.With("component", "server")

	s := &Server{
		config: config,
		store:  store,
		checker: validate.NewChecker(
			validate.WithMessages(config.Messages),
			validate.WithLogger(config.Logger.With("component", "validate")),
		),
		sessions: NewSessionManager(config.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}

	if config.Metrics != nil {
		s.chain = append(s.chain, config.Metrics.Middleware())
		s.sessions.SetOnSessionCreate(func(*Session) { config.Metrics.SessionStarted() })
		s.sessions.SetOnSessionClose(func(*Session) { config.Metrics.SessionEnded() })
	}
	s.chain = append(s.chain, config.EventMiddleware...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.config.Metrics != nil && s.config.Gatherer != nil {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get(ClientPath, s.serveThinClient)
	r.Head(ClientPath, s.serveThinClient)
	r.Get("/pages", s.handleList)
	r.Get("/pages/*", s.handlePage)
	r.Post("/pages/*", s.handleValidate)
	r.Get("/ws/*", s.HandleWebSocket)
	return r
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HandleWebSocket upgrades the request and runs a session for the page
// named by the path.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	doc, err := s.loadPage(r.Context(), name)
	if err != nil {
		s.writePageError(w, r, name, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "page", name)
		return
	}

	session := newSession(conn, name, doc, sessionDeps{
		checker: s.checker,
		ui:      s.config.UI,
		chain:   s.chain,
		metrics: s.config.Metrics,
		config:  s.config.SessionConfig,
		logger:  s.config.Logger,
		onClose: func(sess *Session) { s.sessions.Remove(sess.ID) },
	})
	s.sessions.Add(session)
	session.logger.Info("session started", "forms", len(session.Forms()))

	// The request context ends when the handler returns, so the session
	// runs on its own.
	go session.HeartbeatLoop()
	go session.ReadLoop(context.WithoutCancel(r.Context()))
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.listenAddr = ln.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Shutdown closes all sessions and stops the HTTP server within the
// configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session registry.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}
