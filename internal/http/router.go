package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/config"
	"github.com/tanzimsiamm/fiwippo-backend/internal/http/handler"
	httpmiddleware "github.com/tanzimsiamm/fiwippo-backend/internal/http/middleware"
	"github.com/tanzimsiamm/fiwippo-backend/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, authHandler *handler.AuthHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(cfg))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(httpmiddleware.Timeout(cfg.RequestTimeout))

	r.GET("/health", handler.Health)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/social-login", authHandler.SocialLogin)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/verify-reset-otp", authHandler.VerifyResetOTP)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.POST("/refresh-token", authHandler.RefreshToken)

		authGroup.POST("/set-location", authMiddleware.ValidateJWT, authHandler.SetLocation)
		authGroup.GET("/me", authMiddleware.ValidateJWT, authHandler.Me)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "API NOT FOUND!",
			"error": gin.H{
				"path":    c.Request.URL.Path,
				"message": "Your requested path is not found!",
			},
		})
	})

	return r
}
