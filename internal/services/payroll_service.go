package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrPayrollExists   = errors.New("payroll already generated for month")
	ErrPayrollNotFound = errors.New("payroll not found")
	ErrInvalidMonth    = errors.New("month must be in YYYY-MM format")
	ErrInvalidDayRange = errors.New("invalid day range for month")
)

var oneHundred = decimal.NewFromInt(100)

// --- DTOs ---

// GeneratePayrollRequest DTO. StartDay/EndDay optionally narrow the
// period to a sub-month window (both inclusive, 1-based).
type GeneratePayrollRequest struct {
	Month    string `json:"month" binding:"required"` // YYYY-MM
	StartDay *int   `json:"start_day"`
	EndDay   *int   `json:"end_day"`
}

// AnnualStatsRequest DTO
type AnnualStatsRequest struct {
	Year            int              `json:"year" binding:"required"`
	BonusPercentage *decimal.Decimal `json:"bonus_percentage"`
}

// PayrollSummary is one artist's aggregate for a period before it is
// persisted.
type PayrollSummary struct {
	ArtistID      int64           `json:"artist_id"`
	ArtistName    string          `json:"artist_name"`
	ItemQty       int             `json:"item_qty"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

// --- PayrollService Interface ---
type PayrollService interface {
	GeneratePayroll(req GeneratePayrollRequest) ([]models.Payroll, error)
	GetPayrolls(artistID *int64, month string, page, pageSize int) ([]models.Payroll, int, error)
	GetPayrollByID(id int64) (*models.Payroll, error)
	MarkPayrollPaid(id int64) (*models.Payroll, error)
	CurrentMonthSummary() ([]PayrollSummary, error)

	GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error)

	AnnualArtistStats(req AnnualStatsRequest) ([]models.AnnualArtistStat, error)
	GetAnnualBonuses(year int) ([]models.AnnualBonus, error)
	PayBonuses(year int, artistIDs []int64) (int64, error)
}

type payrollService struct {
	payrollRepo repositories.PayrollRepository
	db          *sql.DB // For managing transactions
	// defaultBonusPct applies when annual stats are requested without
	// an explicit percentage.
	defaultBonusPct decimal.Decimal
}

// NewPayrollService creates a new instance of PayrollService.
func NewPayrollService(pr repositories.PayrollRepository, db *sql.DB, defaultBonusPct decimal.Decimal) PayrollService {
	return &payrollService{payrollRepo: pr, db: db, defaultBonusPct: defaultBonusPct}
}

// parseMonth turns "YYYY-MM" into the first instant of that month, UTC.
func parseMonth(month string) (time.Time, error) {
	parsed, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return parsed, nil
}

// periodBounds resolves the [from, to) interval for a month and an
// optional inclusive day window inside it.
func periodBounds(monthStart time.Time, startDay, endDay *int) (time.Time, time.Time, error) {
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()
	from := monthStart
	to := monthStart.AddDate(0, 1, 0)

	if startDay != nil {
		if *startDay < 1 || *startDay > daysInMonth {
			return time.Time{}, time.Time{}, ErrInvalidDayRange
		}
		from = monthStart.AddDate(0, 0, *startDay-1)
	}
	if endDay != nil {
		if *endDay < 1 || *endDay > daysInMonth {
			return time.Time{}, time.Time{}, ErrInvalidDayRange
		}
		to = monthStart.AddDate(0, 0, *endDay) // exclusive bound = end of that day
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidDayRange
	}
	return from, to, nil
}

// aggregateEarnings folds completed-task facts into per-artist sums.
// Each fact contributes accepted * stage cost; totals are rounded
// half-up to cents at the end.
func aggregateEarnings(earnings []models.CompletedTaskEarning) []PayrollSummary {
	byArtist := make(map[int64]*PayrollSummary)
	for _, e := range earnings {
		summary, ok := byArtist[e.ArtistID]
		if !ok {
			summary = &PayrollSummary{ArtistID: e.ArtistID, ArtistName: e.ArtistName}
			byArtist[e.ArtistID] = summary
		}
		summary.ItemQty += e.Accepted
		summary.TotalEarnings = summary.TotalEarnings.Add(
			e.StageCost.Mul(decimal.NewFromInt(int64(e.Accepted))))
	}

	summaries := make([]PayrollSummary, 0, len(byArtist))
	for _, summary := range byArtist {
		summary.TotalEarnings = summary.TotalEarnings.Round(2)
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ArtistID < summaries[j].ArtistID })
	return summaries
}

// GeneratePayroll aggregates the period's completed work into one
// payroll row per artist. A month that already has payroll is
// rejected outright; payroll is generated once and corrections go
// through status changes, not regeneration.
func (s *payrollService) GeneratePayroll(req GeneratePayrollRequest) ([]models.Payroll, error) {
	monthStart, err := parseMonth(req.Month)
	if err != nil {
		return nil, err
	}
	from, to, err := periodBounds(monthStart, req.StartDay, req.EndDay)
	if err != nil {
		return nil, err
	}

	exists, err := s.payrollRepo.HasPayrollForMonth(monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payroll: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrPayrollExists, req.Month)
	}

	earnings, err := s.payrollRepo.GetCompletedTaskEarnings(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed work for payroll: %w", err)
	}
	summaries := aggregateEarnings(earnings)
	if len(summaries) == 0 {
		return []models.Payroll{}, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	payrolls := make([]models.Payroll, 0, len(summaries))
	for _, summary := range summaries {
		p := models.Payroll{
			ArtistID:      summary.ArtistID,
			ItemQty:       summary.ItemQty,
			TotalEarnings: summary.TotalEarnings,
			Status:        models.PayrollPending,
			Month:         monthStart,
		}
		if _, err := s.payrollRepo.CreatePayroll(tx, &p); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return nil, fmt.Errorf("%w: %s", ErrPayrollExists, req.Month)
			}
			return nil, fmt.Errorf("failed to create payroll for artist %d: %w", summary.ArtistID, err)
		}
		name := summary.ArtistName
		p.ArtistName = &name
		payrolls = append(payrolls, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payroll generation: %w", err)
	}
	return payrolls, nil
}

func (s *payrollService) GetPayrolls(artistID *int64, month string, page, pageSize int) ([]models.Payroll, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	var monthFilter *time.Time
	if month != "" {
		parsed, err := parseMonth(month)
		if err != nil {
			return nil, 0, err
		}
		monthFilter = &parsed
	}
	payrolls, totalCount, err := s.payrollRepo.GetPayrolls(artistID, monthFilter, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payrolls: %w", err)
	}
	return payrolls, totalCount, nil
}

func (s *payrollService) GetPayrollByID(id int64) (*models.Payroll, error) {
	payroll, err := s.payrollRepo.GetPayrollByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPayrollNotFound
		}
		return nil, fmt.Errorf("failed to get payroll: %w", err)
	}
	return payroll, nil
}

func (s *payrollService) MarkPayrollPaid(id int64) (*models.Payroll, error) {
	if err := s.payrollRepo.UpdatePayrollStatus(s.db, id, models.PayrollPaid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPayrollNotFound
		}
		return nil, fmt.Errorf("failed to mark payroll paid: %w", err)
	}
	return s.GetPayrollByID(id)
}

// CurrentMonthSummary computes the running month live without
// persisting anything.
func (s *payrollService) CurrentMonthSummary() ([]PayrollSummary, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	earnings, err := s.payrollRepo.GetCompletedTaskEarnings(monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load current month work: %w", err)
	}
	return aggregateEarnings(earnings), nil
}

func (s *payrollService) GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error) {
	stats, err := s.payrollRepo.GetMonthlyCompletionStats(year)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly completion stats: %w", err)
	}
	return stats, nil
}

// AnnualArtistStats sums a year's booked payrolls per artist,
// computes each bonus as earnings * pct / 100 rounded half-up to
// cents, and upserts the bonus rows. Work not yet run through a
// monthly payroll earns no bonus. A bonus already paid keeps its
// paid status through the recompute.
func (s *payrollService) AnnualArtistStats(req AnnualStatsRequest) ([]models.AnnualArtistStat, error) {
	if req.Year < 2000 || req.Year > 2200 {
		return nil, fmt.Errorf("%w: implausible year %d", ErrValidation, req.Year)
	}
	pct := s.defaultBonusPct
	if req.BonusPercentage != nil {
		if req.BonusPercentage.IsNegative() {
			return nil, fmt.Errorf("%w: bonus percentage cannot be negative", ErrValidation)
		}
		if req.BonusPercentage.GreaterThan(oneHundred) {
			return nil, fmt.Errorf("%w: bonus percentage cannot exceed 100", ErrValidation)
		}
		pct = *req.BonusPercentage
	}

	summaries, err := s.payrollRepo.GetAnnualPayrollTotals(req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load annual payroll totals: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	stats := make([]models.AnnualArtistStat, 0, len(summaries))
	for _, summary := range summaries {
		bonusAmount := summary.TotalEarnings.Mul(pct).Div(oneHundred).Round(2)
		bonus := models.AnnualBonus{
			ArtistID:        summary.ArtistID,
			Year:            req.Year,
			AnnualEarnings:  summary.TotalEarnings,
			BonusPercentage: pct,
			BonusAmount:     bonusAmount,
		}
		if err := s.payrollRepo.UpsertAnnualBonus(tx, &bonus); err != nil {
			return nil, fmt.Errorf("failed to upsert bonus for artist %d: %w", summary.ArtistID, err)
		}
		stats = append(stats, models.AnnualArtistStat{
			ArtistID:      summary.ArtistID,
			ArtistName:    summary.ArtistName,
			TotalEarnings: summary.TotalEarnings,
			TotalItems:    summary.ItemQty,
			BonusAmount:   bonusAmount,
			BonusStatus:   bonus.Status,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit annual stats: %w", err)
	}
	return stats, nil
}

func (s *payrollService) GetAnnualBonuses(year int) ([]models.AnnualBonus, error) {
	bonuses, err := s.payrollRepo.GetAnnualBonuses(year)
	if err != nil {
		return nil, fmt.Errorf("failed to get annual bonuses: %w", err)
	}
	return bonuses, nil
}

func (s *payrollService) PayBonuses(year int, artistIDs []int64) (int64, error) {
	paid, err := s.payrollRepo.PayBonuses(s.db, year, artistIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to pay bonuses: %w", err)
	}
	return paid, nil
}
