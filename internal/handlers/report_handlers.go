package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Lusimba/kichaka/internal/services"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// RefreshDailyReports handles recomputing the sales and production
// rollups for a date. Re-running the same date overwrites the stored
// rows.
func (h *ReportHandler) RefreshDailyReports(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	sales, production, err := h.reportService.RefreshDailyReports(req.Date)
	if err != nil {
		utils.LogError(err, "RefreshDailyReports: Error from reportService.RefreshDailyReports")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to refresh daily reports.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "production": production})
}

// GetSalesReports handles listing sales rollups over a date range.
func (h *ReportHandler) GetSalesReports(c *gin.Context) {
	page, pageSize := parsePagination(c)
	reports, totalCount, err := h.reportService.GetSalesReports(c.Query("from"), c.Query("to"), page, pageSize)
	if err != nil {
		utils.LogError(err, "GetSalesReports: Error from reportService.GetSalesReports")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sales reports.", "Internal error"))
		return
	}
	listResponse(c, reports, totalCount, page, pageSize)
}

// GetProductionReports handles listing production rollups over a date
// range.
func (h *ReportHandler) GetProductionReports(c *gin.Context) {
	page, pageSize := parsePagination(c)
	reports, totalCount, err := h.reportService.GetProductionReports(c.Query("from"), c.Query("to"), page, pageSize)
	if err != nil {
		utils.LogError(err, "GetProductionReports: Error from reportService.GetProductionReports")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch production reports.", "Internal error"))
		return
	}
	listResponse(c, reports, totalCount, page, pageSize)
}
