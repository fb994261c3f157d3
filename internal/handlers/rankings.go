package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora-backend/internal/clients/easscan"
	"github.com/agoralabs/agora-backend/internal/clients/openrank"
	"github.com/agoralabs/agora-backend/internal/services"
	"github.com/agoralabs/agora-backend/internal/tenant"
)

type RankingsHandler struct {
	leaderboardService services.LeaderboardService
	pipelineService    services.PipelineService
}

func NewRankingsHandler(leaderboardService services.LeaderboardService, pipelineService services.PipelineService) *RankingsHandler {
	return &RankingsHandler{
		leaderboardService: leaderboardService,
		pipelineService:    pipelineService,
	}
}

func (rh *RankingsHandler) GetRankings(c *gin.Context) {
	tenantKey := c.Param("tenant")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := rh.leaderboardService.Page(c.Request.Context(), tenantKey, limit, offset)
	if err != nil {
		c.JSON(statusForTenantError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenantKey, "rankings": entries})
}

func (rh *RankingsHandler) GetRuns(c *gin.Context) {
	tenantKey := c.Param("tenant")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := rh.leaderboardService.Runs(c.Request.Context(), tenantKey, limit)
	if err != nil {
		c.JSON(statusForTenantError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenantKey, "runs": runs})
}

func (rh *RankingsHandler) Refresh(c *gin.Context) {
	tenantKey := c.Param("tenant")

	result, err := rh.pipelineService.Run(c.Request.Context(), tenantKey)
	if err != nil {
		status := statusForTenantError(err)
		var fetchErr *easscan.FetchError
		var scoreErr *openrank.ScoringError
		if errors.As(err, &fetchErr) || errors.As(err, &scoreErr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func statusForTenantError(err error) int {
	var unknown *tenant.UnknownTenantError
	if errors.As(err, &unknown) {
		return http.StatusNotFound
	}
	var missing *tenant.MissingStoreError
	if errors.As(err, &missing) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
