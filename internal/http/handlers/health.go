package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/http/response"
)

type HealthHandler struct {
	stores map[string]*gorm.DB
}

func NewHealthHandler(qcDB, mlwhDB *gorm.DB) *HealthHandler {
	stores := map[string]*gorm.DB{}
	if qcDB != nil {
		stores["qc"] = qcDB
	}
	if mlwhDB != nil {
		stores["mlwh"] = mlwhDB
	}
	return &HealthHandler{stores: stores}
}

// HealthCheck pings every store and reports per-store status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	var errs []error
	for name, g := range h.stores {
		sqlDB, err := g.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s store: %w", name, err))
			continue
		}
		status[name] = "ok"
	}
	if len(errs) > 0 {
		response.RespondError(c, http.StatusServiceUnavailable, "unavailable", errors.Join(errs...))
		return
	}
	response.RespondOK(c, gin.H{"status": "ok", "stores": status})
}
