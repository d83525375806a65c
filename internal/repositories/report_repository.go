package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/shopspring/decimal"
)

// ReportRepository defines the interface for precomputed report
// database operations.
type ReportRepository interface {
	UpsertSalesReport(executor SQLExecutor, report *models.SalesReport) error
	GetSalesReports(fromDate, toDate string, page, pageSize int) ([]models.SalesReport, int, error)
	ComputeSalesForDate(date string) (*models.SalesReport, error)

	UpsertProductionReport(executor SQLExecutor, report *models.ProductionReport) error
	GetProductionReports(fromDate, toDate string, page, pageSize int) ([]models.ProductionReport, int, error)
	ComputeProductionForDate(date string) (*models.ProductionReport, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// --- Sales Reports ---

func (r *reportRepository) UpsertSalesReport(executor SQLExecutor, report *models.SalesReport) error {
	query := `INSERT INTO sales_reports (date, total_sales, total_orders, average_order_value)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (date) DO UPDATE SET
	            total_sales = EXCLUDED.total_sales,
	            total_orders = EXCLUDED.total_orders,
	            average_order_value = EXCLUDED.average_order_value
	          RETURNING id`
	err := executor.QueryRow(query, report.Date, report.TotalSales,
		report.TotalOrders, report.AverageOrderValue).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("%w: upserting sales report for %s: %v", ErrDatabaseError, report.Date, err)
	}
	return nil
}

func (r *reportRepository) GetSalesReports(fromDate, toDate string, page, pageSize int) ([]models.SalesReport, int, error) {
	reports := []models.SalesReport{}
	totalCount := 0
	query := `SELECT id, date, total_sales, total_orders, average_order_value, COUNT(*) OVER() AS total_count
	          FROM sales_reports
	          WHERE date >= $1 AND date <= $2
	          ORDER BY date DESC
	          LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(query, fromDate, toDate, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales reports: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var report models.SalesReport
		if err := rows.Scan(&report.ID, &report.Date, &report.TotalSales, &report.TotalOrders,
			&report.AverageOrderValue, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sales report: %v", ErrDatabaseError, err)
		}
		reports = append(reports, report)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales reports: %v", ErrDatabaseError, err)
	}
	return reports, totalCount, nil
}

// ComputeSalesForDate aggregates delivered and shipped orders for one
// day directly from the order tables.
func (r *reportRepository) ComputeSalesForDate(date string) (*models.SalesReport, error) {
	report := &models.SalesReport{Date: date}
	query := `SELECT COALESCE(SUM(i.selling_price * oi.quantity), 0) AS total_sales,
	            COUNT(DISTINCT o.id) AS total_orders
	          FROM orders o
	          JOIN order_items oi ON oi.order_id = o.id
	          JOIN items i ON oi.item_id = i.id
	          WHERE o.order_date::date = $1::date
	            AND o.status NOT IN ('CANCELLED')`
	err := r.db.QueryRow(query, date).Scan(&report.TotalSales, &report.TotalOrders)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report, nil
		}
		return nil, fmt.Errorf("%w: computing sales for %s: %v", ErrDatabaseError, date, err)
	}
	if report.TotalOrders > 0 {
		report.AverageOrderValue = report.TotalSales.DivRound(decimal.NewFromInt(int64(report.TotalOrders)), 2)
	}
	return report, nil
}

// --- Production Reports ---

func (r *reportRepository) UpsertProductionReport(executor SQLExecutor, report *models.ProductionReport) error {
	query := `INSERT INTO production_reports (date, total_items_produced, total_tasks_completed, quality_pass_rate)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (date) DO UPDATE SET
	            total_items_produced = EXCLUDED.total_items_produced,
	            total_tasks_completed = EXCLUDED.total_tasks_completed,
	            quality_pass_rate = EXCLUDED.quality_pass_rate
	          RETURNING id`
	err := executor.QueryRow(query, report.Date, report.TotalItemsProduced,
		report.TotalTasksCompleted, report.QualityPassRate).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("%w: upserting production report for %s: %v", ErrDatabaseError, report.Date, err)
	}
	return nil
}

func (r *reportRepository) GetProductionReports(fromDate, toDate string, page, pageSize int) ([]models.ProductionReport, int, error) {
	reports := []models.ProductionReport{}
	totalCount := 0
	query := `SELECT id, date, total_items_produced, total_tasks_completed, quality_pass_rate, COUNT(*) OVER() AS total_count
	          FROM production_reports
	          WHERE date >= $1 AND date <= $2
	          ORDER BY date DESC
	          LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(query, fromDate, toDate, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting production reports: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var report models.ProductionReport
		if err := rows.Scan(&report.ID, &report.Date, &report.TotalItemsProduced,
			&report.TotalTasksCompleted, &report.QualityPassRate, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning production report: %v", ErrDatabaseError, err)
		}
		reports = append(reports, report)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating production reports: %v", ErrDatabaseError, err)
	}
	return reports, totalCount, nil
}

// ComputeProductionForDate aggregates the day's completed-task facts
// and quality checks.
func (r *reportRepository) ComputeProductionForDate(date string) (*models.ProductionReport, error) {
	report := &models.ProductionReport{Date: date}
	query := `SELECT COALESCE(SUM(accepted), 0), COUNT(*)
	          FROM completed_tasks
	          WHERE date::date = $1::date`
	if err := r.db.QueryRow(query, date).Scan(&report.TotalItemsProduced, &report.TotalTasksCompleted); err != nil {
		return nil, fmt.Errorf("%w: computing production for %s: %v", ErrDatabaseError, date, err)
	}

	qualityQuery := `SELECT COUNT(*) FILTER (WHERE result = 'PASS'), COUNT(*)
	                 FROM quality_checks
	                 WHERE check_date::date = $1::date`
	var passed, total int
	if err := r.db.QueryRow(qualityQuery, date).Scan(&passed, &total); err != nil {
		return nil, fmt.Errorf("%w: computing quality pass rate for %s: %v", ErrDatabaseError, date, err)
	}
	if total > 0 {
		report.QualityPassRate = float64(passed) / float64(total) * 100
	}
	return report, nil
}
