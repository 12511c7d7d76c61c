package server

import (
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/marketplace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Service *marketplace.Service
	Logger  logger.Logger
	Checks  []ReadinessCheck
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewRouter constructs the gin engine with middleware and routes registered.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Use(
		RequestID(),
		Logging(log),
		Recovery(log),
	)

	h := &handlers{service: deps.Service, checks: deps.Checks, logger: log}

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1/compatibility/:category")
	api.POST("", h.score)
	api.POST("/rank", h.rank)
	api.GET("/weights", h.weights)

	r.DELETE("/api/v1/profiles/:userId/cache", h.invalidateProfile)

	return r
}
