package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/repository"
	"vidtube/internal/service"
)

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter configures the gin router with middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	videoH *VideoHandler,
	subsH *SubscriptionHandler,
	tokens *service.TokenService,
	users repository.UserRepository,
	db Pinger,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), errorTranslator(logger))

	r.GET("/healthz", healthHandler(db))

	authRequired := AuthMiddleware(tokens, users)

	usersGroup := r.Group("/users")
	usersGroup.POST("/register", userH.Register)
	usersGroup.POST("/login", userH.Login)
	usersGroup.POST("/refresh-token", userH.RefreshToken)
	usersGroup.POST("/logout", authRequired, userH.Logout)
	usersGroup.POST("/change-password", authRequired, userH.ChangePassword)
	usersGroup.GET("/current-user", authRequired, userH.GetCurrentUser)
	usersGroup.PATCH("/update-account-details", authRequired, userH.UpdateAccountDetails)
	usersGroup.PATCH("/update-avatar", authRequired, userH.UpdateAvatar)
	usersGroup.PATCH("/update-coverImage", authRequired, userH.UpdateCoverImage)
	usersGroup.GET("/c/:username", authRequired, userH.GetChannelProfile)
	usersGroup.GET("/history", authRequired, userH.GetWatchHistory)

	videos := r.Group("/videos", authRequired)
	videos.POST("/publish-video", videoH.Publish)
	videos.GET("/c/:videoId", videoH.GetByID)
	videos.PATCH("/c/update-video/:videoId", videoH.Update)

	subs := r.Group("/subscriptions", authRequired)
	subs.POST("/c/:channelId", subsH.Toggle)

	return r
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware logs one line per request with zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
