// Package httpchat is a small HTTP chat front-end over the shared command
// registry and Brain, grounded on the gin-gonic router/handler shape used
// by codeready-toolchain-tarsy's pkg/api/handlers.go and cmd/tarsy/main.go
// (a Server struct wrapping gin.Context handlers, gin.H JSON responses, a
// /health endpoint backed by gin.Default()).
package httpchat

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/controller"
)

// Server is the HTTP chat API, one handler method per route.
type Server struct {
	ctrl *controller.Controller
	log  zerolog.Logger
}

// NewServer wraps a Controller with HTTP handlers.
func NewServer(ctrl *controller.Controller, log zerolog.Logger) *Server {
	return &Server{ctrl: ctrl, log: log.With().Str("component", "httpchat").Logger()}
}

// Router builds a gin.Engine with every route registered. gin.SetMode is
// left to the caller (cmd/inklingd selects release mode before calling this
// unless -verbose enabled debug logging).
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.GET("/health", s.health)
	r.POST("/api/chat", s.chat)
	r.GET("/api/commands", s.commands)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"mood":   s.ctrl.Personality.CurrentMood(),
	})
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
	Mood  string `json:"mood"`
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	reply, err := s.ctrl.HandleInput(ctx, req.Message)
	if err != nil {
		s.log.Error().Err(err).Msg("chat handling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Reply: reply,
		Mood:  string(s.ctrl.Personality.CurrentMood()),
	})
}

func (s *Server) commands(c *gin.Context) {
	categories := s.ctrl.Registry.ByCategory()
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
