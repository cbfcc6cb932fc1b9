package api

import (
	"errors"
	"net/http"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/gin-gonic/gin"
)

func (api *Api) ListAlerts(c *gin.Context) {
	projectID, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	unresolvedOnly := c.Query("unresolved") == "true"

	alerts, err := api.store.ListAlerts(c.Request.Context(), projectID, unresolvedOnly)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if alerts == nil {
		alerts = []*model.Alert{}
	}
	c.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}

// ResolveAlert closes an alert on behalf of an external actor. Once
// resolved, the deduplicator is free to raise a fresh alert for the same
// (project, type).
func (api *Api) ResolveAlert(c *gin.Context) {
	alertID := c.Param("alertID")
	if alertID == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing alertID")
		return
	}
	err := api.store.ResolveAlert(c.Request.Context(), alertID, api.clock.Now())
	if errors.Is(err, model.ErrNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "alert not found or already resolved")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, map[string]string{"status": "resolved"})
}
