package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePayrollService lets each test plug in just the methods it needs.
// Calling an unset method panics, which surfaces as a test failure.
type fakePayrollService struct {
	generatePayroll           func(req services.GeneratePayrollRequest) ([]models.Payroll, error)
	getPayrolls               func(artistID *int64, month string, page, pageSize int) ([]models.Payroll, int, error)
	getPayrollByID            func(id int64) (*models.Payroll, error)
	markPayrollPaid           func(id int64) (*models.Payroll, error)
	currentMonthSummary       func() ([]services.PayrollSummary, error)
	getMonthlyCompletionStats func(year int) ([]models.MonthlyCompletionStat, error)
	annualArtistStats         func(req services.AnnualStatsRequest) ([]models.AnnualArtistStat, error)
	getAnnualBonuses          func(year int) ([]models.AnnualBonus, error)
	payBonuses                func(year int, artistIDs []int64) (int64, error)
}

func (f *fakePayrollService) GeneratePayroll(req services.GeneratePayrollRequest) ([]models.Payroll, error) {
	return f.generatePayroll(req)
}

func (f *fakePayrollService) GetPayrolls(artistID *int64, month string, page, pageSize int) ([]models.Payroll, int, error) {
	return f.getPayrolls(artistID, month, page, pageSize)
}

func (f *fakePayrollService) GetPayrollByID(id int64) (*models.Payroll, error) {
	return f.getPayrollByID(id)
}

func (f *fakePayrollService) MarkPayrollPaid(id int64) (*models.Payroll, error) {
	return f.markPayrollPaid(id)
}

func (f *fakePayrollService) CurrentMonthSummary() ([]services.PayrollSummary, error) {
	return f.currentMonthSummary()
}

func (f *fakePayrollService) GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error) {
	return f.getMonthlyCompletionStats(year)
}

func (f *fakePayrollService) AnnualArtistStats(req services.AnnualStatsRequest) ([]models.AnnualArtistStat, error) {
	return f.annualArtistStats(req)
}

func (f *fakePayrollService) GetAnnualBonuses(year int) ([]models.AnnualBonus, error) {
	return f.getAnnualBonuses(year)
}

func (f *fakePayrollService) PayBonuses(year int, artistIDs []int64) (int64, error) {
	return f.payBonuses(year, artistIDs)
}

func payrollTestRouter(svc services.PayrollService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPayrollHandler(svc)
	r := gin.New()
	r.POST("/payroll/generate", h.GeneratePayroll)
	r.GET("/payroll", h.GetPayrolls)
	r.GET("/payroll/:id", h.GetPayrollByID)
	r.POST("/payroll/:id/pay", h.MarkPayrollPaid)
	return r
}

func TestGeneratePayrollHTTP(t *testing.T) {
	svc := &fakePayrollService{
		generatePayroll: func(req services.GeneratePayrollRequest) ([]models.Payroll, error) {
			assert.Equal(t, "2026-02", req.Month)
			return []models.Payroll{
				{ID: 1, ArtistID: 4, ItemQty: 9, TotalEarnings: decimal.RequireFromString("85.50"), Status: models.PayrollPending},
				{ID: 2, ArtistID: 7, ItemQty: 3, TotalEarnings: decimal.RequireFromString("42.00"), Status: models.PayrollPending},
			}, nil
		},
	}
	r := payrollTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll/generate", strings.NewReader(`{"month":"2026-02"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data  []models.Payroll `json:"data"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Data, 2)
	assert.Equal(t, int64(4), body.Data[0].ArtistID)
}

func TestGeneratePayrollHTTPDuplicateMonth(t *testing.T) {
	svc := &fakePayrollService{
		generatePayroll: func(req services.GeneratePayrollRequest) ([]models.Payroll, error) {
			return nil, services.ErrPayrollExists
		},
	}
	r := payrollTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll/generate", strings.NewReader(`{"month":"2026-02"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestGeneratePayrollHTTPMissingMonth(t *testing.T) {
	r := payrollTestRouter(&fakePayrollService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll/generate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayrollsHTTPListShape(t *testing.T) {
	month := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakePayrollService{
		getPayrolls: func(artistID *int64, monthStr string, page, pageSize int) ([]models.Payroll, int, error) {
			require.NotNil(t, artistID)
			assert.Equal(t, int64(4), *artistID)
			assert.Equal(t, "2026-02", monthStr)
			assert.Equal(t, 2, page)
			assert.Equal(t, 10, pageSize)
			return []models.Payroll{
				{ID: 11, ArtistID: 4, Month: month, TotalEarnings: decimal.RequireFromString("85.50")},
			}, 21, nil
		},
	}
	r := payrollTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payroll?artist_id=4&month=2026-02&page=2&page_size=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data     []models.Payroll `json:"data"`
		Total    int              `json:"total"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 21, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 10, body.PageSize)
	require.Len(t, body.Data, 1)
}

func TestGetPayrollsHTTPBadArtistID(t *testing.T) {
	r := payrollTestRouter(&fakePayrollService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payroll?artist_id=abc", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayrollByIDHTTPNotFound(t *testing.T) {
	svc := &fakePayrollService{
		getPayrollByID: func(id int64) (*models.Payroll, error) {
			assert.Equal(t, int64(99), id)
			return nil, services.ErrPayrollNotFound
		},
	}
	r := payrollTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payroll/99", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkPayrollPaidHTTP(t *testing.T) {
	svc := &fakePayrollService{
		markPayrollPaid: func(id int64) (*models.Payroll, error) {
			return &models.Payroll{ID: id, Status: models.PayrollPaid, TotalEarnings: decimal.RequireFromString("85.50")}, nil
		},
	}
	r := payrollTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll/12/pay", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var payroll models.Payroll
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payroll))
	assert.Equal(t, models.PayrollPaid, payroll.Status)
}
