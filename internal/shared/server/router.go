package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tool-recommender/internal/llm/anthropic"
	"tool-recommender/internal/recommendations"
	"tool-recommender/internal/services/health"
	"tool-recommender/internal/shared/config"
	"tool-recommender/internal/shared/metrics"
	"tool-recommender/internal/shared/server/middleware"
	"tool-recommender/internal/shared/server/respond"
)

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

const upstreamRateLimitGroup = "UPSTREAM"

// Dependencies overrides collaborators NewRouter would otherwise build from config.
type Dependencies struct {
	Clients     recommendations.ClientFactory
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	return NewRouterWith(cfg, Dependencies{})
}

// NewRouterWith is NewRouter with injectable dependencies.
func NewRouterWith(cfg config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.RateLimiter,
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost {
					return upstreamRateLimitGroup
				}
				return ""
			},
			Rules: map[string]middleware.RateLimitRule{
				upstreamRateLimitGroup: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			},
		}),
	)

	clients := deps.Clients
	if clients == nil {
		clients = anthropic.Factory(cfg.LLMModel, anthropic.Options{BaseURL: cfg.AnthropicBaseURL})
	}
	recSvc := recommendations.NewServiceFromConfig(cfg, clients)
	recHandler := recommendations.NewHandler(recSvc)
	healthSvc := health.NewService(Version, cfg.AnthropicAPIKey != "")

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	recHandler.RegisterRoutes(api)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

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
