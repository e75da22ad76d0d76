package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billyribeiro-ux/build-ops/internal/imports"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/services/health"
	"github.com/billyribeiro-ux/build-ops/internal/shared/config"
	"github.com/billyribeiro-ux/build-ops/internal/shared/metrics"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server/middleware"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server/respond"
)

// Rate limit groups.
const (
	GroupSubmit  = "SUBMIT"
	GroupPolling = "POLLING"
)

// RouterDeps carries the handlers mounted on the engine. Nil handlers are skipped.
type RouterDeps struct {
	Config         config.Config
	ImportHandler  *imports.Handler
	ProgramHandler *programs.Handler
	Health         *health.Service
	RateLimits     map[string]middleware.RateLimitRule
	Now            func() time.Time
}

// DefaultRateLimits allows frequent status polling and fewer submissions.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		GroupSubmit:  {Rate: 0.5, Burst: 10},
		GroupPolling: {Rate: 5, Burst: 60},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" && deps.Config.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = DefaultRateLimits()
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rules,
			GroupFor: RateLimitGroup,
			Limiter:  middleware.NewRateLimiter(deps.Now),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		out, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, out)
	})
	if deps.ImportHandler != nil {
		deps.ImportHandler.RegisterRoutes(api)
	}
	if deps.ProgramHandler != nil {
		deps.ProgramHandler.RegisterRoutes(api)
	}

	return r
}

// RateLimitGroup buckets import reads as polling and import writes as
// submissions. Other routes are not limited.
func RateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	if path != "/api/v1/imports" && !strings.HasPrefix(path, "/api/v1/imports/") {
		return ""
	}
	if c.Request.Method == http.MethodGet {
		return GroupPolling
	}
	return GroupSubmit
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
