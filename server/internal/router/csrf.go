package router

import (
	"errors"
	"net/http"

	"video-coords/server/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenFormKey    = "_csrf"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection keeps one token per session and requires it on every
// mutating request. The player page exposes it in a meta tag.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, ok := session.Get(csrfTokenSessionKey).(string)
		if !ok || token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		}
		c.Set(csrfTokenContextKey, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		// The player script sends the header; upload forms carry the field.
		submitted := c.GetHeader(csrfTokenHeaderKey)
		if submitted == "" && c.ContentType() == gin.MIMEMultipartPOSTForm {
			submitted = c.PostForm(csrfTokenFormKey)
		}
		if !ok || submitted == "" || !utils.TokensEqual(submitted, token) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token"})
			return
		}
		c.Next()
	}
}
