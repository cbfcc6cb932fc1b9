package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/gin-gonic/gin"
)

func (api *Api) ListInsights(c *gin.Context) {
	projectID, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	category := model.InsightCategory(c.Query("category"))

	insights, err := api.store.ListInsights(c.Request.Context(), projectID, category)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if insights == nil {
		insights = []*model.Insight{}
	}
	c.JSON(http.StatusOK, map[string]any{"insights": insights})
}

func (api *Api) AcknowledgeInsight(c *gin.Context) {
	api.updateInsight(c, api.store.AcknowledgeInsight, "acknowledged")
}

func (api *Api) ResolveInsight(c *gin.Context) {
	api.updateInsight(c, api.store.ResolveInsight, "resolved")
}

func (api *Api) updateInsight(c *gin.Context, update func(ctx context.Context, insightID string, at time.Time) error, status string) {
	insightID := c.Param("insightID")
	if insightID == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing insightID")
		return
	}
	err := update(c.Request.Context(), insightID, api.clock.Now())
	if errors.Is(err, model.ErrNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "insight not found or already "+status)
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, map[string]string{"status": status})
}
