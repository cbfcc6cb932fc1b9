package api

import (
	"net/http"
	"strconv"

	"github.com/devguard/devguard/internal/analysis/service"
	"github.com/gin-gonic/gin"
)

// Api exposes the read surface over alerts, insights and optimizations,
// plus the dependency scan trigger. All analysis happens on the
// scheduler; these handlers only read and flip external-actor state
// (resolve/acknowledge).
type Api struct {
	store   service.Store
	scanner service.Scanner
	clock   service.Clock
}

func NewApi(router *gin.Engine, store service.Store, scanner service.Scanner, clock service.Clock) *Api {
	if clock == nil {
		clock = service.SystemClock()
	}
	api := &Api{store: store, scanner: scanner, clock: clock}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *gin.Engine) {
	router.GET("/v1/alerts", api.ListAlerts)
	router.POST("/v1/alerts/:alertID/resolve", api.ResolveAlert)

	router.GET("/v1/insights", api.ListInsights)
	router.POST("/v1/insights/:insightID/acknowledge", api.AcknowledgeInsight)
	router.POST("/v1/insights/:insightID/resolve", api.ResolveInsight)

	router.GET("/v1/optimizations", api.ListOptimizations)

	router.POST("/v1/projects/:projectID/scans", api.TriggerScan)
}

func sendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func parseID(c *gin.Context, query string) (int64, bool) {
	raw := c.Query(query)
	if raw == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing "+query)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid "+query)
		return 0, false
	}
	return id, true
}
