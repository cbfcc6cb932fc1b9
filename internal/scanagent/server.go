package scanagent

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/devguard/devguard/internal/analysis/database"
	"github.com/devguard/devguard/internal/analysis/service"
	"github.com/devguard/devguard/internal/config"
	"github.com/fox-gonic/fox"
	"github.com/rs/zerolog/log"
)

// Server is the standalone scan-trigger adapter. Operators and CI
// pipelines call it to run a dependency scan and append one result row;
// the analysis core only ever reads those rows.
type Server struct {
	config  *config.Config
	db      *database.Database
	scanner service.Scanner
}

func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis database: %w", err)
	}
	store := database.NewStore(db)
	srv := &Server{
		config:  cfg,
		db:      db,
		scanner: service.NewStubScanner(store, service.SystemClock()),
	}
	log.Info().Str("db", cfg.Database.Host).Msg("scan agent initialized")
	return srv, nil
}

// WithScanner swaps the scan strategy (real vulnerability-database
// integrations plug in here).
func (s *Server) WithScanner(sc service.Scanner) *Server {
	s.scanner = sc
	return s
}

func (s *Server) UseApi(router *fox.Engine) error {
	router.POST("/v1/projects/:project_id/scans", s.TriggerScan)
	router.GET("/healthz", s.Health)
	return nil
}

func (s *Server) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

type triggerScanRequest struct {
	Ecosystem string `json:"ecosystem"`
}

func (s *Server) TriggerScan(c *fox.Context) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, map[string]any{"error": map[string]any{
			"code": "INVALID_PARAMETER", "message": "invalid project_id"}})
		return
	}
	var req triggerScanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ecosystem == "" {
		c.JSON(http.StatusBadRequest, map[string]any{"error": map[string]any{
			"code": "INVALID_PARAMETER", "message": "ecosystem is required"}})
		return
	}

	result, err := s.scanner.Scan(c.Request.Context(), projectID, req.Ecosystem)
	if err != nil {
		log.Error().Err(err).Int64("project_id", projectID).Msg("dependency scan failed")
		c.JSON(http.StatusInternalServerError, map[string]any{"error": map[string]any{
			"code": "INTERNAL_ERROR", "message": err.Error()}})
		return
	}
	c.JSON(http.StatusCreated, map[string]any{
		"scan_id":        result.ID,
		"project_id":     result.ProjectID,
		"ecosystem":      result.Ecosystem,
		"scan_timestamp": result.ScanTimestamp,
	})
}

func (s *Server) Health(c *fox.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
