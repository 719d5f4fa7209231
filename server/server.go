package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
	"github.com/AntonStoeckl/library-circulation-go/store"
)

const (
	// ReplayedHeader marks a response replayed for a repeated idempotency key.
	ReplayedHeader = "X-Idempotency-Replayed"
	// RequestIDHeader carries the request id assigned by the server.
	RequestIDHeader = "X-Request-ID"

	defaultIdempotencyTTL = 24 * time.Hour
	corsMaxAge            = 12 * time.Hour
)

// Server serves the HTTP API backed by a store.Store.
type Server struct {
	store          store.Store
	engine         *gin.Engine
	idempotency    *IdempotencyCache
	idempotencyTTL time.Duration
	allowedOrigins []string
	bcryptCost     int
	now            func() time.Time
	logger         lending.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the Server.
//
// Info level: handled requests with status and duration
// Error level: store failures answered with 500.
func WithLogger(logger lending.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock sets the time source for issue dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin, which is the default.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithIdempotencyTTL sets how long responses are kept for replay.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.idempotencyTTL = ttl
	}
}

// WithBcryptCost sets the cost for hashing new administrator passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.bcryptCost = cost
	}
}

// New creates a Server for st. Call Close to stop its background cleanup.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:          st,
		idempotencyTTL: defaultIdempotencyTTL,
		allowedOrigins: []string{"*"},
		bcryptCost:     bcrypt.DefaultCost,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.idempotency = NewIdempotencyCache(s.idempotencyTTL)
	s.engine = s.buildEngine()

	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops the idempotency cache cleanup.
func (s *Server) Close() {
	s.idempotency.Stop()
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLog(), cors.New(s.corsConfig()))

	api := engine.Group("/api")
	{
		api.GET("/books", s.listBooks)
		api.GET("/students", s.listLoans)
		api.POST("/login", s.login)

		writes := api.Group("", s.idempotency.Middleware())
		writes.POST("/books", s.addBook)
		writes.POST("/issue", s.issueBook)
		writes.POST("/return", s.returnBook)
		writes.DELETE("/books/:id", s.deleteBook)
		writes.POST("/reset-password", s.resetPassword)
	}

	return engine
}

func (s *Server) corsConfig() cors.Config {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", remote.IdempotencyKeyHeader},
		ExposeHeaders: []string{ReplayedHeader, RequestIDHeader},
		MaxAge:        corsMaxAge,
	}

	for _, origin := range s.allowedOrigins {
		if origin == "*" {
			config.AllowAllOrigins = true
			return config
		}
	}

	config.AllowOrigins = s.allowedOrigins

	return config
}

// today is the current UTC calendar date at midnight.
func (s *Server) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
