package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/langqc-backend/internal/http/handlers"
	httpMW "github.com/yungbote/langqc-backend/internal/http/middleware"
	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log           *logger.Logger
	HealthHandler *httpH.HealthHandler
	Metrics       *observability.Metrics
	Tracing       bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware("langqc"))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	// Metrics
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return r
}
