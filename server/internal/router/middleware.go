package router

import (
	"net/http"

	"video-coords/server/internal/handlers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const viewerSessionKey = "viewerID"

// ViewerMiddleware gives every session a stable viewer id and puts it in the
// context. Component keys are scoped to it, so two tabs of one browser share
// ledgers while two browsers never do.
func ViewerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		viewer, ok := session.Get(viewerSessionKey).(string)
		if !ok || uuid.Validate(viewer) != nil {
			viewer = uuid.NewString()
			session.Set(viewerSessionKey, viewer)
			if err := session.Save(); err != nil {
				log.Error("Failed to save viewer session", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			log.Debug("New viewer", zap.String("viewer", viewer))
		}

		c.Set(handlers.ViewerContextKey, viewer)
		c.Next()
	}
}
