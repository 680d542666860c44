package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/dashboard"
	"legaldocs-backend/internal/documents"
	"legaldocs-backend/internal/services/health"
	"legaldocs-backend/internal/shared/config"
	"legaldocs-backend/internal/shared/metrics"
	"legaldocs-backend/internal/shared/server/middleware"
	"legaldocs-backend/internal/shared/server/respond"
)

const (
	analyzeRoute     = "/api/v1/documents/:id/analyze"
	rateGroupAnalyze = "ANALYZE"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config           config.Config
	DocumentHandler  *documents.Handler
	DashboardHandler *dashboard.Handler
	Health           *health.Service
	Limiter          *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	r.GET("/health", healthHandler(deps.Health))

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))

	secured := api.Group("")
	secured.Use(
		middleware.Auth(deps.Config.APIToken),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.Limiter,
			GroupFor: func(c *gin.Context) string {
				if c.FullPath() == analyzeRoute {
					return rateGroupAnalyze
				}
				return ""
			},
			Rules: map[string]middleware.RateLimitRule{
				rateGroupAnalyze: middleware.PerMinute(deps.Config.AnalyzeRatePerMinute),
			},
		}),
	)
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(secured)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(secured)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		st := svc.Check(c.Request.Context())
		if !st.OK {
			respond.JSON(c, http.StatusServiceUnavailable, st)
			return
		}
		respond.OK(c, st)
	}
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
