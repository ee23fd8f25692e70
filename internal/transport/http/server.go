package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/admin"
	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/core"
)

// NewServer builds an HTTP server exposing the conversation over REST and WebSocket.
func NewServer(ctrl *core.Controller, adm *admin.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(ctrl, adm, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers all routes on a gin engine.
func NewRouter(ctrl *core.Controller, adm *admin.Service, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	chat := NewChatHandlers(ctrl, logger)
	api := router.Group("/api")
	{
		api.GET("/messages", chat.ListMessages)
		api.POST("/messages", chat.PostMessage)
		api.GET("/status", chat.Status)
	}

	if adm != nil {
		adminHandlers := NewAdminHandlers(adm, logger)
		adminGroup := api.Group("/admin")
		{
			adminGroup.GET("/dashboard", adminHandlers.Dashboard)
			adminGroup.GET("/services", adminHandlers.Services)
		}
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(ctrl, cfg.MaxSendsPerMinute, logger)))

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
