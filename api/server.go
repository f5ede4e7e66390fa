package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/store"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrArchiveDisabled is returned by archive routes when no store is configured.
var ErrArchiveDisabled = errors.New("script archive is not configured")

// ErrServerClosed is returned for long commands arriving after Close began.
var ErrServerClosed = errors.New("server is shutting down")

// Factory builds the controller of a new session.
type Factory func() (*pipeline.Controller, error)

type session struct {
	id        string
	ctrl      *pipeline.Controller
	createdAt time.Time
}

// Server exposes pipeline sessions and the script archive over HTTP.
type Server struct {
	factory Factory
	store   store.ScriptStore
	logger  log.Logger
	origins []string
	cors    *cors.Config

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	// runs carries every pipeline stage started on behalf of a request.
	runs   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the archive routes.
func WithStore(s store.ScriptStore) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithLogger sets the request and session logger.
func WithLogger(l log.Logger) Option {
	return func(srv *Server) {
		srv.logger = l
	}
}

// WithAllowedOrigins sets the origins allowed for CORS and websockets.
// "*" allows any origin. Without origins only same-origin websockets are accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(srv *Server) {
		srv.origins = append([]string(nil), origins...)
	}
}

// NewServer creates a server building session controllers with factory.
func NewServer(factory Factory, opts ...Option) (*Server, error) {
	if factory == nil {
		return nil, errors.New("api: controller factory is required")
	}
	s := &Server{
		factory:  factory,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDefault(s.logger)
	if len(s.origins) > 0 {
		cfg, err := corsConfig(s.origins)
		if err != nil {
			return nil, err
		}
		s.cors = &cfg
	}
	s.runs, s.cancel = context.WithCancel(context.Background())
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Handler returns the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if s.cors != nil {
		r.Use(cors.New(*s.cors))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.GET("/sessions", s.listSessions)

		sess := api.Group("/sessions/:id")
		sess.GET("", s.getState)
		sess.DELETE("", s.deleteSession)
		sess.POST("/start", s.start)
		sess.POST("/select", s.selectComponent)
		sess.POST("/script", s.requestScript)
		sess.POST("/back", s.back)
		sess.POST("/reset", s.reset)
		sess.GET("/voice", s.getVoice)
		sess.PUT("/voice", s.setVoice)
		sess.DELETE("/voice", s.clearVoice)
		sess.GET("/export", s.export)
		sess.GET("/events", s.events)
		sess.GET("/ws", s.socket)
		sess.GET("/timings", s.timings)

		api.GET("/graph", s.diagram)
		api.GET("/scripts", s.listScripts)
		api.GET("/scripts/:id", s.getScript)
		api.DELETE("/scripts/:id", s.deleteScript)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	// Streams stay open until their sessions close.
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close cancels running stages, closes every session and waits for the runs to end.
func (s *Server) Close() {
	s.cancel()

	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.ctrl.Close()
	}
	s.wg.Wait()
}

func (s *Server) newSession() (*session, error) {
	ctrl, err := s.factory()
	if err != nil {
		return nil, err
	}
	sess := &session{id: uuid.NewString(), ctrl: ctrl, createdAt: time.Now().UTC()}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("session %s created", sess.id)
	return sess, nil
}

func (s *Server) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Server) removeSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.ctrl.Close()
	s.logger.Info("session %s closed", id)
	return nil
}

// sessionIDs returns the open session ids, oldest first.
func (s *Server) sessionIDs() []sessionInfo {
	s.mu.RLock()
	out := make([]sessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sessionInfo{ID: sess.id, CreatedAt: sess.createdAt, Step: sess.ctrl.State().Step})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// track reserves a slot for a background run. It fails once Close has begun.
func (s *Server) track() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrServerClosed
	}
	s.wg.Add(1)
	return s.wg.Done, nil
}

// background finishes a begun command detached from the request. done
// releases the slot taken by track.
func (s *Server) background(name, id string, run func() error, done func()) {
	go func() {
		defer done()
		if err := run(); err != nil {
			if errors.Is(err, pipeline.ErrSuperseded) || errors.Is(err, context.Canceled) {
				s.logger.Debug("session %s: %s superseded", id, name)
				return
			}
			s.logger.Warn("session %s: %s failed: %v", id, name, err)
		}
	}()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.originAllowed(origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
