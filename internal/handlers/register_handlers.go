package handlers

import (
	"github.com/SscSPs/doc_signing_app/cmd/docs"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/SscSPs/doc_signing_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes. signLimiter may be nil, in
// which case signing submissions are not rate limited.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	signLimiter *limiter.Limiter,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services, signLimiter)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group. Operator routes use the
// operator JWT; signer routes use the per-signer link token.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	signLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")

	var signLimit gin.HandlerFunc
	if signLimiter != nil {
		signLimit = middleware.RateLimit(signLimiter)
	}
	registerSigningRoutes(v1, services, cfg.SigningTokenSecret, signLimit)

	operator := v1.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	registerDocumentRoutes(operator, services, cfg)
	registerAuditRoutes(operator, services.Audit)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
