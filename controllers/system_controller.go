package controllers

import (
	"context"
	"net/http"
	"time"

	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
)

type postalLookup interface {
	Lookup(ctx context.Context, raw string) (*services.PostalAddress, error)
}

// Pinger проверяет доступность базы данных
type Pinger interface {
	Ping() error
}

// SystemController обрабатывает служебные маршруты: health, метрики, поиск CEP
type SystemController struct {
	postal  postalLookup
	db      Pinger
	started time.Time
}

func NewSystemController(postal postalLookup, db Pinger) *SystemController {
	return &SystemController{postal: postal, db: db, started: time.Now()}
}

// Health обрабатывает GET /health
func (sc *SystemController) Health(c *gin.Context) {
	status, state, dbStatus := http.StatusOK, "ok", "ok"
	if sc.db != nil {
		if err := sc.db.Ping(); err != nil {
			utils.Logger.Error().Err(err).Msg("health check: database unavailable")
			status, state, dbStatus = http.StatusServiceUnavailable, "degraded", "unavailable"
		}
	}

	c.JSON(status, gin.H{
		"success":  status == http.StatusOK,
		"status":   state,
		"uptime":   time.Since(sc.started).Round(time.Second).String(),
		"database": dbStatus,
	})
}

// Metrics обрабатывает GET /v1/metrics
func (sc *SystemController) Metrics(c *gin.Context) {
	respondData(c, http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
}

// PostalCode обрабатывает GET /v1/postal-codes/:code
func (sc *SystemController) PostalCode(c *gin.Context) {
	address, err := sc.postal.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, address)
}
