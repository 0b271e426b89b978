package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/langqc-backend/internal/http"
	httpH "github.com/yungbote/langqc-backend/internal/http/handlers"
)

// OpsRouter builds the operations server: health and metrics only.
func (a *App) OpsRouter() *gin.Engine {
	a.Log.Info("Wiring ops router...")
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:           a.Log,
		HealthHandler: httpH.NewHealthHandler(a.QCDB, a.MLWHDB),
		Metrics:       a.Metrics,
		Tracing:       a.Cfg.OtelEnabled,
	})
}

func (a *App) Serve() error {
	srv := apphttp.NewServer(a.OpsRouter())
	a.Log.Info("Serving ops endpoints", "addr", a.Cfg.MetricsAddr)
	return srv.Run(a.Cfg.MetricsAddr)
}
