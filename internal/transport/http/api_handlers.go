package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/admin"
	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/proto"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatHandlers provides HTTP handlers for the conversation.
type ChatHandlers struct {
	ctrl *core.Controller
	log  *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(ctrl *core.Controller, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		ctrl: ctrl,
		log:  logger,
	}
}

// ListMessages returns the conversation in append order.
// GET /api/messages
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, messagesToProto(h.ctrl.Conversation().Messages()))
}

// PostMessage submits a user message. The reply arrives asynchronously.
// POST /api/messages
func (h *ChatHandlers) PostMessage(c *gin.Context) {
	var req proto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.ctrl.Submit(req.Message); err != nil {
		var coreErr *core.CoreError
		if errors.Is(err, core.ErrSkipped) && errors.As(err, &coreErr) {
			c.JSON(http.StatusOK, proto.SubmitResult{Status: proto.SubmitSkipped, Reason: coreErr.Code})
			return
		}
		h.log.Error().Err(err).Msg("failed to submit message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, proto.SubmitResult{Status: proto.SubmitAccepted})
}

// Status reports whether a send is in flight.
// GET /api/status
func (h *ChatHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, proto.Status{
		InFlight: h.ctrl.InFlight(),
		State:    h.ctrl.State().String(),
		Messages: h.ctrl.Conversation().Len(),
	})
}

// AdminHandlers serves the admin widgets.
type AdminHandlers struct {
	admin *admin.Service
	log   *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(adm *admin.Service, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		admin: adm,
		log:   logger,
	}
}

// Dashboard returns the overview widgets.
// GET /api/admin/dashboard
func (h *AdminHandlers) Dashboard(c *gin.Context) {
	dashboard, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build dashboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Services probes the configured services.
// GET /api/admin/services
func (h *AdminHandlers) Services(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.admin.Services(c.Request.Context())})
}
