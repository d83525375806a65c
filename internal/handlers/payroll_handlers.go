package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Lusimba/kichaka/internal/services"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PayrollHandler holds the payroll service.
type PayrollHandler struct {
	payrollService services.PayrollService
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(ps services.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: ps}
}

// GeneratePayroll handles generating payroll records for a month from
// recorded piecework. A month can only be generated once.
func (h *PayrollHandler) GeneratePayroll(c *gin.Context) {
	var req services.GeneratePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payrolls, err := h.payrollService.GeneratePayroll(req)
	if err != nil {
		utils.LogError(err, "GeneratePayroll: Error from payrollService.GeneratePayroll")
		if errors.Is(err, services.ErrPayrollExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Payroll for this month already exists.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidMonth) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid month, expected YYYY-MM.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidDayRange) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid day range for the month.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate payroll.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payrolls, "count": len(payrolls)})
}

// GetPayrolls handles listing payroll records with filters.
func (h *PayrollHandler) GetPayrolls(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var artistID *int64
	if raw := c.Query("artist_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid artist_id format.", err.Error()))
			return
		}
		artistID = &parsed
	}

	payrolls, totalCount, err := h.payrollService.GetPayrolls(artistID, c.Query("month"), page, pageSize)
	if err != nil {
		utils.LogError(err, "GetPayrolls: Error from payrollService.GetPayrolls")
		if errors.Is(err, services.ErrInvalidMonth) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid month, expected YYYY-MM.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payrolls.", "Internal error"))
		}
		return
	}
	listResponse(c, payrolls, totalCount, page, pageSize)
}

// GetPayrollByID handles fetching a single payroll record.
func (h *PayrollHandler) GetPayrollByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	payroll, err := h.payrollService.GetPayrollByID(id)
	if err != nil {
		if errors.Is(err, services.ErrPayrollNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payroll record not found.", ""))
		} else {
			utils.LogError(err, "GetPayrollByID: Error from payrollService.GetPayrollByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payroll record.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, payroll)
}

// MarkPayrollPaid handles marking a payroll record as paid.
func (h *PayrollHandler) MarkPayrollPaid(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	payroll, err := h.payrollService.MarkPayrollPaid(id)
	if err != nil {
		utils.LogError(err, "MarkPayrollPaid: Error from payrollService.MarkPayrollPaid")
		if errors.Is(err, services.ErrPayrollNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payroll record not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark payroll as paid.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, payroll)
}

// CurrentMonthSummary handles the live earnings view for the month in
// progress. Nothing is persisted.
func (h *PayrollHandler) CurrentMonthSummary(c *gin.Context) {
	summaries, err := h.payrollService.CurrentMonthSummary()
	if err != nil {
		utils.LogError(err, "CurrentMonthSummary: Error from payrollService.CurrentMonthSummary")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute current month summary.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries, "month": time.Now().Format("2006-01")})
}

// GetMonthlyCompletionStats handles the per-month accepted-unit totals
// for a year.
func (h *PayrollHandler) GetMonthlyCompletionStats(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid year format.", err.Error()))
		return
	}

	stats, err := h.payrollService.GetMonthlyCompletionStats(year)
	if err != nil {
		utils.LogError(err, "GetMonthlyCompletionStats: Error from payrollService.GetMonthlyCompletionStats")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch monthly completion stats.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats, "year": year})
}

// AnnualArtistStats handles computing annual earnings and bonuses per
// artist, persisting the bonus rows.
func (h *PayrollHandler) AnnualArtistStats(c *gin.Context) {
	var req services.AnnualStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	stats, err := h.payrollService.AnnualArtistStats(req)
	if err != nil {
		utils.LogError(err, "AnnualArtistStats: Error from payrollService.AnnualArtistStats")
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute annual stats.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats, "year": req.Year})
}

// GetAnnualBonuses handles listing stored bonus records for a year.
func (h *PayrollHandler) GetAnnualBonuses(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid year format.", err.Error()))
		return
	}

	bonuses, err := h.payrollService.GetAnnualBonuses(year)
	if err != nil {
		utils.LogError(err, "GetAnnualBonuses: Error from payrollService.GetAnnualBonuses")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch annual bonuses.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bonuses, "year": year})
}

// PayBonuses handles marking pending bonuses for a year as paid.
// Repeated artist_id query parameters limit the payout to a subset.
func (h *PayrollHandler) PayBonuses(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid year format.", err.Error()))
		return
	}

	var artistIDs []int64
	for _, raw := range c.QueryArray("artist_id") {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid artist_id format.", err.Error()))
			return
		}
		artistIDs = append(artistIDs, parsed)
	}

	paid, err := h.payrollService.PayBonuses(year, artistIDs)
	if err != nil {
		utils.LogError(err, "PayBonuses: Error from payrollService.PayBonuses")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to pay bonuses.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": paid, "year": year})
}
