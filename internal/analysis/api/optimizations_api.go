package api

import (
	"net/http"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/gin-gonic/gin"
)

func (api *Api) ListOptimizations(c *gin.Context) {
	connectionID, ok := parseID(c, "connection_id")
	if !ok {
		return
	}
	opts, err := api.store.ListOptimizations(c.Request.Context(), connectionID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if opts == nil {
		opts = []*model.QueryOptimization{}
	}
	c.JSON(http.StatusOK, map[string]any{"optimizations": opts})
}
