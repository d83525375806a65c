package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
)

// --- ReportService Interface ---
type ReportService interface {
	// RefreshDailyReports recomputes and stores the rollups for a date
	// (YYYY-MM-DD; empty means today).
	RefreshDailyReports(date string) (*models.SalesReport, *models.ProductionReport, error)
	GetSalesReports(fromDate, toDate string, page, pageSize int) ([]models.SalesReport, int, error)
	GetProductionReports(fromDate, toDate string, page, pageSize int) ([]models.ProductionReport, int, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	db         *sql.DB
}

// NewReportService creates a new instance of ReportService.
func NewReportService(rr repositories.ReportRepository, db *sql.DB) ReportService {
	return &reportService{reportRepo: rr, db: db}
}

func (s *reportService) RefreshDailyReports(date string) (*models.SalesReport, *models.ProductionReport, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	sales, err := s.reportRepo.ComputeSalesForDate(date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute sales rollup: %w", err)
	}
	production, err := s.reportRepo.ComputeProductionForDate(date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute production rollup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.reportRepo.UpsertSalesReport(tx, sales); err != nil {
		return nil, nil, fmt.Errorf("failed to store sales report: %w", err)
	}
	if err := s.reportRepo.UpsertProductionReport(tx, production); err != nil {
		return nil, nil, fmt.Errorf("failed to store production report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit report refresh: %w", err)
	}
	return sales, production, nil
}

func normalizeReportRange(fromDate, toDate string) (string, string, error) {
	if fromDate == "" {
		fromDate = time.Now().AddDate(0, -1, 0).Format("2006-01-02")
	}
	if toDate == "" {
		toDate = time.Now().Format("2006-01-02")
	}
	for _, d := range []string{fromDate, toDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", "", fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrValidation)
		}
	}
	if fromDate > toDate {
		return "", "", fmt.Errorf("%w: from_date is after to_date", ErrValidation)
	}
	return fromDate, toDate, nil
}

func (s *reportService) GetSalesReports(fromDate, toDate string, page, pageSize int) ([]models.SalesReport, int, error) {
	fromDate, toDate, err := normalizeReportRange(fromDate, toDate)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePagination(page, pageSize)
	reports, totalCount, err := s.reportRepo.GetSalesReports(fromDate, toDate, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales reports: %w", err)
	}
	return reports, totalCount, nil
}

func (s *reportService) GetProductionReports(fromDate, toDate string, page, pageSize int) ([]models.ProductionReport, int, error) {
	fromDate, toDate, err := normalizeReportRange(fromDate, toDate)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePagination(page, pageSize)
	reports, totalCount, err := s.reportRepo.GetProductionReports(fromDate, toDate, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get production reports: %w", err)
	}
	return reports, totalCount, nil
}
