// server/internal/handlers/player.go
package handlers

import (
	"net/http"

	"video-coords/server/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	csrfTokenContextKey = "csrf_token"
	cspNonceContextKey  = "csp_nonce"
)

type PlayerHandler struct {
	log *zap.Logger
}

func NewPlayerHandler(log *zap.Logger) *PlayerHandler {
	return &PlayerHandler{log: log}
}

// ShowPlayer renders the page hosting one component. The script mounts it
// with the key and src taken from the query string.
func (h *PlayerHandler) ShowPlayer(c *gin.Context) {
	csrfToken, exists := c.Get(csrfTokenContextKey)
	if !exists {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	cspNonce, _ := c.Get(cspNonceContextKey)
	nonce, _ := cspNonce.(string)

	key := c.DefaultQuery("key", "default")
	src := c.Query("src")

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := views.Player("Video coordinates", key, src, csrfToken.(string), nonce).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("Failed to render player page", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
