package assistant

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/proto"
)

// EchoConfig controls the stand-in assistant service.
type EchoConfig struct {
	Delay  time.Duration // wait before answering
	Silent bool          // answer with an empty response field
	Fail   bool          // answer every chat request with 500
}

// NewEchoHandler serves the assistant API by echoing messages back. It is meant
// for local runs and tests of the chat client.
func NewEchoHandler(cfg EchoConfig, logger *zerolog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(DefaultHealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "echo-assistant"})
	})

	router.POST(DefaultChatPath, func(c *gin.Context) {
		var req proto.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
			return
		}

		if cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-c.Request.Context().Done():
				return
			}
		}

		if cfg.Fail {
			logger.Debug().Msg("echo assistant failing on purpose")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "echo assistant configured to fail"})
			return
		}

		resp := proto.ChatResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}
		if !cfg.Silent {
			resp.Response = echoReply(req.Message)
		}
		logger.Info().Int("message_len", len(req.Message)).Msg("echo assistant replied")
		c.JSON(http.StatusOK, resp)
	})

	return router
}

func echoReply(message string) string {
	text := strings.TrimSpace(message)
	return "**Echo:** " + text
}
