// Package health serves the liveness and readiness endpoints used by the
// hosting platform.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// pingTimeout bounds the readiness check.
const pingTimeout = 3 * time.Second

// Gateway reports the Discord connection state.
type Gateway interface {
	Connected() bool
	GuildCount() int
}

// Pinger checks the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP health server.
type Server struct {
	gateway Gateway
	store   Pinger
	now     func() time.Time
	srv     *http.Server
}

// New creates a health server listening on addr.
func New(addr string, gateway Gateway, store Pinger) *Server {
	s := &Server{gateway: gateway, store: store, now: time.Now}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(recovery())
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "online"
	if !s.gateway.Connected() {
		status = "connecting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"bot":       status,
		"guilds":    s.gateway.GuildCount(),
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "storage unreachable"})
		return
	}
	if !s.gateway.Connected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "gateway not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("Panic in health handler")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.srv.Addr).Msg("Health server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
