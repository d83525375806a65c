package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/lib/pq"
)

// stageCostCase maps a stage code to the matching item cost column.
// Unknown codes fall back to the splitting cost, mirroring
// models.Item.StageCost.
const stageCostCase = `CASE ct.current_stage
	      WHEN '1' THEN i.splitting_drawing_cost
	      WHEN '2' THEN i.carving_cutting_cost
	      WHEN '3' THEN i.sanding_cost
	      WHEN '4' THEN i.painting_cost
	      WHEN '5' THEN i.finishing_cost
	      WHEN '6' THEN i.packaging_cost
	      ELSE i.splitting_drawing_cost
	    END`

// PayrollRepository defines the interface for payroll and bonus
// database operations.
type PayrollRepository interface {
	// Payroll methods
	HasPayrollForMonth(month time.Time) (bool, error)
	CreatePayroll(executor SQLExecutor, payroll *models.Payroll) (int64, error)
	GetPayrolls(artistID *int64, month *time.Time, page, pageSize int) ([]models.Payroll, int, error)
	GetPayrollByID(id int64) (*models.Payroll, error)
	UpdatePayrollStatus(executor SQLExecutor, id int64, status string) error

	// GetCompletedTaskEarnings returns per-fact earnings rows for the
	// half-open interval [from, to).
	GetCompletedTaskEarnings(from, to time.Time) ([]models.CompletedTaskEarning, error)
	GetAnnualPayrollTotals(year int) ([]models.ArtistPayrollTotal, error)

	// Statistics
	GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error)

	// AnnualBonus methods
	UpsertAnnualBonus(executor SQLExecutor, bonus *models.AnnualBonus) error
	GetAnnualBonuses(year int) ([]models.AnnualBonus, error)
	PayBonuses(executor SQLExecutor, year int, artistIDs []int64) (int64, error)
}

type payrollRepository struct {
	db *sql.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sql.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

// --- Payroll Methods ---

func (r *payrollRepository) HasPayrollForMonth(month time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM payrolls WHERE month = $1)`, month).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking payroll for month %s: %v", ErrDatabaseError, month.Format("2006-01"), err)
	}
	return exists, nil
}

func (r *payrollRepository) CreatePayroll(executor SQLExecutor, payroll *models.Payroll) (int64, error) {
	query := `INSERT INTO payrolls (artist_id, item_qty, total_earnings, status, month, date_created)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if payroll.DateCreated.IsZero() {
		payroll.DateCreated = time.Now()
	}
	if payroll.Status == "" {
		payroll.Status = models.PayrollPending
	}
	err := executor.QueryRow(query, payroll.ArtistID, payroll.ItemQty, payroll.TotalEarnings,
		payroll.Status, payroll.Month, payroll.DateCreated).Scan(&payroll.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: payroll for artist %d and month %s already exists (constraint: %s)",
				ErrDuplicateKey, payroll.ArtistID, payroll.Month.Format("2006-01"), pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating payroll: %v", ErrDatabaseError, err)
	}
	return payroll.ID, nil
}

func (r *payrollRepository) GetPayrolls(artistID *int64, month *time.Time, page, pageSize int) ([]models.Payroll, int, error) {
	payrolls := []models.Payroll{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT p.id, p.artist_id, p.item_qty, p.total_earnings, p.status,
	    p.month, p.date_created, a.name AS artist_name,
	    COUNT(*) OVER() AS total_count
	  FROM payrolls p
	  JOIN artists a ON p.artist_id = a.id`)

	var conditions []string
	var args []interface{}
	argCount := 1
	if artistID != nil {
		conditions = append(conditions, fmt.Sprintf("p.artist_id = $%d", argCount))
		args = append(args, *artistID)
		argCount++
	}
	if month != nil {
		conditions = append(conditions, fmt.Sprintf("p.month = $%d", argCount))
		args = append(args, *month)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.month DESC, a.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting payrolls: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payroll
		var artistName string
		if err := rows.Scan(&p.ID, &p.ArtistID, &p.ItemQty, &p.TotalEarnings, &p.Status,
			&p.Month, &p.DateCreated, &artistName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning payroll: %v", ErrDatabaseError, err)
		}
		p.ArtistName = &artistName
		payrolls = append(payrolls, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating payrolls: %v", ErrDatabaseError, err)
	}
	return payrolls, totalCount, nil
}

func (r *payrollRepository) GetPayrollByID(id int64) (*models.Payroll, error) {
	p := &models.Payroll{}
	var artistName string
	query := `SELECT p.id, p.artist_id, p.item_qty, p.total_earnings, p.status, p.month, p.date_created,
	            a.name AS artist_name
	          FROM payrolls p
	          JOIN artists a ON p.artist_id = a.id
	          WHERE p.id = $1`
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.ArtistID, &p.ItemQty, &p.TotalEarnings,
		&p.Status, &p.Month, &p.DateCreated, &artistName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payroll by ID %d: %v", ErrDatabaseError, id, err)
	}
	p.ArtistName = &artistName
	return p, nil
}

func (r *payrollRepository) UpdatePayrollStatus(executor SQLExecutor, id int64, status string) error {
	result, err := executor.Exec(`UPDATE payrolls SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%w: updating payroll %d status: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Earnings Source ---

func (r *payrollRepository) GetCompletedTaskEarnings(from, to time.Time) ([]models.CompletedTaskEarning, error) {
	earnings := []models.CompletedTaskEarning{}
	query := `SELECT ct.artist_id, a.name, ct.current_stage, ct.accepted, ` + stageCostCase + ` AS stage_cost
	          FROM completed_tasks ct
	          JOIN items i ON ct.item_id = i.id
	          JOIN artists a ON ct.artist_id = a.id
	          WHERE ct.date >= $1 AND ct.date < $2
	          ORDER BY ct.artist_id, ct.id`
	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: getting completed task earnings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.CompletedTaskEarning
		if err := rows.Scan(&e.ArtistID, &e.ArtistName, &e.Stage, &e.Accepted, &e.StageCost); err != nil {
			return nil, fmt.Errorf("%w: scanning completed task earning: %v", ErrDatabaseError, err)
		}
		earnings = append(earnings, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating completed task earnings: %v", ErrDatabaseError, err)
	}
	return earnings, nil
}

// GetAnnualPayrollTotals sums an artist's booked payroll rows for a
// year. Facts without a payroll run behind them do not count.
func (r *payrollRepository) GetAnnualPayrollTotals(year int) ([]models.ArtistPayrollTotal, error) {
	totals := []models.ArtistPayrollTotal{}
	query := `SELECT p.artist_id, a.name,
	            COALESCE(SUM(p.total_earnings), 0) AS total_earnings,
	            COALESCE(SUM(p.item_qty), 0) AS item_qty
	          FROM payrolls p
	          JOIN artists a ON p.artist_id = a.id
	          WHERE EXTRACT(YEAR FROM p.month) = $1
	          GROUP BY p.artist_id, a.name
	          ORDER BY p.artist_id`
	rows, err := r.db.Query(query, year)
	if err != nil {
		return nil, fmt.Errorf("%w: getting annual payroll totals: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.ArtistPayrollTotal
		if err := rows.Scan(&t.ArtistID, &t.ArtistName, &t.TotalEarnings, &t.ItemQty); err != nil {
			return nil, fmt.Errorf("%w: scanning annual payroll total: %v", ErrDatabaseError, err)
		}
		totals = append(totals, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating annual payroll totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

// --- Statistics ---

func (r *payrollRepository) GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error) {
	stats := []models.MonthlyCompletionStat{}
	// Earnings come from the booked payrolls, not from raw facts; a
	// month completed but not yet run through payroll reports zero.
	query := `SELECT date_trunc('month', ct.date) AS month,
	            COALESCE(SUM(ct.accepted), 0) AS total_completed,
	            COUNT(*) AS total_tasks,
	            COALESCE((SELECT SUM(p.total_earnings) FROM payrolls p
	                      WHERE date_trunc('month', p.month) = date_trunc('month', ct.date)), 0) AS total_earnings
	          FROM completed_tasks ct
	          WHERE EXTRACT(YEAR FROM ct.date) = $1
	          GROUP BY 1
	          ORDER BY 1`
	rows, err := r.db.Query(query, year)
	if err != nil {
		return nil, fmt.Errorf("%w: getting monthly completion stats: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.MonthlyCompletionStat
		if err := rows.Scan(&s.Month, &s.TotalCompleted, &s.TotalTasks, &s.TotalEarnings); err != nil {
			return nil, fmt.Errorf("%w: scanning monthly completion stat: %v", ErrDatabaseError, err)
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating monthly completion stats: %v", ErrDatabaseError, err)
	}
	return stats, nil
}

// --- AnnualBonus Methods ---

// UpsertAnnualBonus inserts or refreshes the (artist, year) bonus row.
// Status is intentionally NOT in the update list: a bonus already
// marked paid keeps that status when the figures are recomputed.
func (r *payrollRepository) UpsertAnnualBonus(executor SQLExecutor, bonus *models.AnnualBonus) error {
	query := `INSERT INTO annual_bonuses
	            (artist_id, year, annual_earnings, bonus_percentage, bonus_amount, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          ON CONFLICT (artist_id, year) DO UPDATE SET
	            annual_earnings = EXCLUDED.annual_earnings,
	            bonus_percentage = EXCLUDED.bonus_percentage,
	            bonus_amount = EXCLUDED.bonus_amount,
	            updated_at = EXCLUDED.updated_at
	          RETURNING id, status`
	currentTime := time.Now()
	if bonus.Status == "" {
		bonus.Status = models.PayrollPending
	}
	err := executor.QueryRow(query, bonus.ArtistID, bonus.Year, bonus.AnnualEarnings,
		bonus.BonusPercentage, bonus.BonusAmount, bonus.Status, currentTime).Scan(&bonus.ID, &bonus.Status)
	if err != nil {
		return fmt.Errorf("%w: upserting annual bonus for artist %d year %d: %v",
			ErrDatabaseError, bonus.ArtistID, bonus.Year, err)
	}
	return nil
}

func (r *payrollRepository) GetAnnualBonuses(year int) ([]models.AnnualBonus, error) {
	bonuses := []models.AnnualBonus{}
	query := `SELECT ab.id, ab.artist_id, ab.year, ab.annual_earnings, ab.bonus_percentage,
	            ab.bonus_amount, ab.status, ab.created_at, ab.updated_at,
	            a.name AS artist_name
	          FROM annual_bonuses ab
	          JOIN artists a ON ab.artist_id = a.id
	          WHERE ab.year = $1
	          ORDER BY a.name`
	rows, err := r.db.Query(query, year)
	if err != nil {
		return nil, fmt.Errorf("%w: getting annual bonuses for year %d: %v", ErrDatabaseError, year, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.AnnualBonus
		var artistName string
		if err := rows.Scan(&b.ID, &b.ArtistID, &b.Year, &b.AnnualEarnings, &b.BonusPercentage,
			&b.BonusAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt, &artistName); err != nil {
			return nil, fmt.Errorf("%w: scanning annual bonus: %v", ErrDatabaseError, err)
		}
		b.ArtistName = &artistName
		bonuses = append(bonuses, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating annual bonuses: %v", ErrDatabaseError, err)
	}
	return bonuses, nil
}

// PayBonuses marks pending bonuses for a year as paid in one
// statement and returns how many rows changed. A non-empty artistIDs
// limits the update to those artists.
func (r *payrollRepository) PayBonuses(executor SQLExecutor, year int, artistIDs []int64) (int64, error) {
	query := `UPDATE annual_bonuses SET status = $1, updated_at = $2 WHERE year = $3 AND status = $4`
	args := []interface{}{models.PayrollPaid, time.Now(), year, models.PayrollPending}
	if len(artistIDs) > 0 {
		query += ` AND artist_id = ANY($5)`
		args = append(args, pq.Array(artistIDs))
	}
	result, err := executor.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: paying bonuses for year %d: %v", ErrDatabaseError, year, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: reading affected bonus rows: %v", ErrDatabaseError, err)
	}
	return rowsAffected, nil
}

