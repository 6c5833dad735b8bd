// server/internal/router/router.go
package router

import (
	"net/http"

	"video-coords/server/internal/component"
	"video-coords/server/internal/config"
	"video-coords/server/internal/emitter"
	"video-coords/server/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionMaxAge = 86400 * 7

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", info.ResetTime.UTC().Format(http.TimeFormat))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, registry *component.Registry, hub *emitter.Hub) *gin.Engine {
	conf := config.Get().Server

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(conf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	})
	router.Use(sessions.Sessions("vidcoords", store))

	// Sessions must be in place before these run.
	router.Use(ViewerMiddleware(log))
	router.Use(CSRFProtection())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	router.Static("/assets", conf.AssetsDir)

	componentHandler := handlers.NewComponentHandler(log, registry, hub, conf.MediaDir)
	playerHandler := handlers.NewPlayerHandler(log)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  conf.RateLimit.Window,
		Limit: conf.RateLimit.Limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/player", NonceMiddleware(), playerHandler.ShowPlayer)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/player")
	})

	components := router.Group("/components/:key")
	{
		components.POST("", limiter, componentHandler.Mount)
		components.DELETE("", componentHandler.Release)
		components.POST("/metadata", componentHandler.Metadata)
		components.POST("/clicks", limiter, componentHandler.Click)
		components.GET("/clicks", componentHandler.List)
		components.GET("/events", componentHandler.Events)
		components.GET("/summary", componentHandler.Summary)
	}

	return router
}
