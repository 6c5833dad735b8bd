package router

import (
	"fmt"
	"net/http"

	"video-coords/server/internal/utils"

	"github.com/gin-gonic/gin"
)

const CspNonceContextKey = "csp_nonce"

// NonceMiddleware creates a nonce for each page request and sends the
// Content-Security-Policy that allows only scripts carrying it. Media may come
// from anywhere the host points the player at.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(16)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(CspNonceContextKey, nonce)
		c.Header("Content-Security-Policy", fmt.Sprintf(
			"default-src 'self'; script-src 'self' 'nonce-%s'; style-src 'self'; media-src 'self' https: http: data: blob:; connect-src 'self'",
			nonce,
		))
		c.Next()
	}
}
