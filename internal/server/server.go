// Package server exposes the REST and websocket API consumed by the
// browser CRM front-end.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tgcrm/internal/config"
	"tgcrm/internal/database"
	"tgcrm/internal/gemini"
	"tgcrm/internal/logger"
	"tgcrm/internal/telegram"
	"tgcrm/internal/ws"
)

// Dispatcher is the outbound side of the Telegram boundary the handlers
// depend on. *telegram.Client satisfies it.
type Dispatcher interface {
	SendReply(ctx context.Context, chatID int64, text, replyToID string) *telegram.APIResponse
	SendSticker(ctx context.Context, chatID int64, sticker, replyToID string) *telegram.APIResponse
	SendAnimation(ctx context.Context, chatID int64, animation, caption, replyToID string) *telegram.APIResponse
	GetChat(ctx context.Context, chatIDOrHandle string) *telegram.APIResponse
	GetMe(ctx context.Context) *telegram.APIResponse
}

// Server wires the CRM HTTP API to its collaborators.
type Server struct {
	log   *slog.Logger
	cfg   *config.Config
	store database.Store
	tg    Dispatcher
	ai    gemini.Client
	hub   *ws.Hub
}

// New creates the API server.
func New(
	log *slog.Logger,
	cfg *config.Config,
	store database.Store,
	tg Dispatcher,
	ai gemini.Client,
	hub *ws.Hub,
) *Server {
	return &Server{
		log:   log.With("component", "http_server"),
		cfg:   cfg,
		store: store,
		tg:    tg,
		ai:    ai,
		hub:   hub,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(s.log))

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/login", s.handleLogin)
	router.POST("/api/setup", s.handleSetup)

	api := router.Group("/api", s.authMiddleware())
	{
		api.GET("/chats", s.handleListChats)
		api.GET("/chats/:chat_id/messages", s.handleListMessages)
		api.GET("/messages/search", s.handleSearchMessages)

		api.POST("/chats/:chat_id/reply", s.handleSendReply)
		api.POST("/chats/:chat_id/sticker", s.handleSendSticker)
		api.POST("/chats/:chat_id/animation", s.handleSendAnimation)
		api.POST("/broadcast", s.handleBroadcast)

		api.GET("/lookup", s.handleLookupChat)
		api.GET("/bot", s.handleBotInfo)

		api.POST("/ai/suggest", s.handleSuggest)
		api.POST("/ai/speak", s.handleSpeak)

		api.GET("/users", s.handleListUsers)
		api.POST("/users", s.handleCreateUser)
	}

	router.GET("/ws", s.authMiddleware(), s.handleWebsocket)

	return router
}

// HTTPServer wraps the router in an http.Server bound to the configured
// address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Router(),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
