package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/documents"
	"docscan-backend/internal/shared/config"
	"docscan-backend/internal/shared/metrics"
	"docscan-backend/internal/shared/server/middleware"
	"docscan-backend/internal/shared/server/respond"
	"docscan-backend/internal/templates"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	TemplateHandler *templates.Handler
}

const scanRateGroup = "SCAN"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	api.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				// Scans call the extraction engine; everything else is cheap.
				scanRateGroup: {Rate: 0.5, Burst: 5},
				"DEFAULT":     {Rate: 10, Burst: 30},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost &&
					(c.FullPath() == "/api/v1/scan" || strings.HasSuffix(c.FullPath(), "/rescan")) {
					return scanRateGroup
				}
				return ""
			},
		}),
	)

	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
