// Package http exposes the closing and finance sessions over a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/auth"
)

// Logger is the key/value logger the server writes to
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		SessionIdleTTL: 30 * time.Minute,
		SweepInterval:  time.Minute,
		MaxUploadBytes: 10 << 20,
	}
}

// Services are the application services behind the routes. Previews is
// optional.
type Services struct {
	Closing    *service.ClosingService
	Finance    *service.FinanceService
	References service.ReferenceService
	Previews   port.PreviewURLProvider
	Verifier   *auth.Verifier
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	closings   *SessionStore[*service.ClosingSession]
	reviews    *SessionStore[*service.ReviewSession]
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.SessionIdleTTL <= 0 {
		config.SessionIdleTTL = DefaultServerConfig().SessionIdleTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultServerConfig().SweepInterval
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		closings: NewSessionStore[*service.ClosingSession](config.SessionIdleTTL),
		reviews:  NewSessionStore[*service.ReviewSession](config.SessionIdleTTL),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// ownsFile reports whether key is attached to a line in one of the
// user's open closing or review sessions
func (s *Server) ownsFile(userID, key string) bool {
	if s.closings.Any(userID, func(cs *service.ClosingSession) bool { return cs.HasFile(key) }) {
		return true
	}
	return s.reviews.Any(userID, func(rs *service.ReviewSession) bool { return rs.HasFile(key) })
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(LoggingMiddleware(s.logger))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	closing := NewClosingHandlers(s.services.Closing, s.closings, s.config.MaxUploadBytes, s.logger)
	finance := NewFinanceHandlers(s.services.Finance, s.reviews, s.logger)
	reference := NewReferenceHandlers(s.services.References, s.services.Previews, s.ownsFile, s.logger)

	s.router.GET("/health", HealthCheck)

	api := s.router.Group("/api")
	api.Use(AuthMiddleware(s.services.Verifier))
	{
		c := api.Group("/closing/:id")
		c.POST("/session", closing.OpenSession)
		c.GET("", closing.GetSnapshot)
		c.POST("/lines", closing.AddLine)
		c.PATCH("/lines/:lineId", closing.UpdateLine)
		c.DELETE("/lines/:lineId", closing.RemoveLine)
		c.POST("/lines/:lineId/file", closing.AttachFile)
		c.DELETE("/lines/:lineId/file", closing.RemoveFile)
		c.POST("/lines/:lineId/suggest", closing.Suggest)
		c.POST("/save", closing.Save)
		c.POST("/save-and-close", closing.SaveAndClose)
		c.POST("/submit", closing.Submit)
		c.POST("/preserve", closing.Preserve)
		c.POST("/leave", closing.Leave)
		c.POST("/leave/confirm", closing.ConfirmLeave)
		c.GET("/summary.xlsx", closing.ExportSummary)

		f := api.Group("/finance/:id")
		f.POST("/session", finance.OpenSession)
		f.GET("", finance.GetSnapshot)
		f.POST("/lines/:index/approve", finance.ApproveLine)
		f.POST("/lines/:index/reject", finance.RejectLine)
		f.POST("/partial-approve", finance.PartialApprove)
		f.POST("/approve", finance.Approve)
		f.POST("/reject", finance.Reject)
		f.GET("/decisions", finance.Decisions)

		r := api.Group("/reference")
		r.GET("/projects", reference.Projects)
		r.GET("/expense-types", reference.ExpenseTypes)
		r.GET("/suppliers", reference.Suppliers)
		r.GET("/categories", reference.Categories)
		r.GET("/credit-cards", reference.CreditCards)

		api.GET("/currency/symbols/:code", reference.CurrencySymbol)
		api.GET("/files/preview", reference.FilePreview)
	}
}

// Start starts the HTTP server and the idle session sweeper
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Infow("Starting HTTP server", "address", addr)

	go RunSweeper(ctx, s.config.SweepInterval, s.logger, s.closings, s.reviews)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Infow("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Errorw("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Infow("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorw("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Infow("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
