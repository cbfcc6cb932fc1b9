package api

import (
	"net/http"
	"strconv"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/gin-gonic/gin"
)

var knownEcosystems = map[string]bool{
	"npm": true, "pypi": true, "maven": true, "go": true,
	"rubygems": true, "cargo": true, "nuget": true,
}

type triggerScanRequest struct {
	Ecosystem string `json:"ecosystem" binding:"required"`
}

// TriggerScan runs a dependency scan for (project, ecosystem) and
// appends the result. The risk analyzer picks it up on its next sweep.
func (api *Api) TriggerScan(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("projectID"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid projectID")
		return
	}
	var req triggerScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "invalid request body: "+err.Error())
		return
	}
	if !knownEcosystems[req.Ecosystem] {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "unknown ecosystem "+req.Ecosystem)
		return
	}

	result, err := api.scanner.Scan(c.Request.Context(), projectID, req.Ecosystem)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusCreated, scanResponse(result))
}

func scanResponse(r *model.DependencyScanResult) map[string]any {
	return map[string]any{
		"id":                    r.ID,
		"project_id":            r.ProjectID,
		"scan_timestamp":        r.ScanTimestamp,
		"trigger":               r.Trigger,
		"ecosystem":             r.Ecosystem,
		"total_dependencies":    r.TotalDependencies,
		"total_vulnerabilities": r.TotalVulnerabilities,
		"overall_risk_score":    r.OverallRiskScore,
		"scan_duration_ms":      r.ScanDuration.Milliseconds(),
	}
}
