package services

import (
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePayrollRepo implements repositories.PayrollRepository with
// overridable function fields.
type fakePayrollRepo struct {
	hasPayrollForMonth  func(month time.Time) (bool, error)
	createPayroll       func(executor repositories.SQLExecutor, payroll *models.Payroll) (int64, error)
	getPayrolls         func(artistID *int64, month *time.Time, page, pageSize int) ([]models.Payroll, int, error)
	getPayrollByID      func(id int64) (*models.Payroll, error)
	updatePayrollStatus func(executor repositories.SQLExecutor, id int64, status string) error
	getEarnings         func(from, to time.Time) ([]models.CompletedTaskEarning, error)
	getAnnualTotals     func(year int) ([]models.ArtistPayrollTotal, error)
	getMonthlyStats     func(year int) ([]models.MonthlyCompletionStat, error)
	upsertAnnualBonus   func(executor repositories.SQLExecutor, bonus *models.AnnualBonus) error
	getAnnualBonuses    func(year int) ([]models.AnnualBonus, error)
	payBonuses          func(executor repositories.SQLExecutor, year int, artistIDs []int64) (int64, error)
}

func (f *fakePayrollRepo) HasPayrollForMonth(month time.Time) (bool, error) {
	return f.hasPayrollForMonth(month)
}

func (f *fakePayrollRepo) CreatePayroll(executor repositories.SQLExecutor, payroll *models.Payroll) (int64, error) {
	return f.createPayroll(executor, payroll)
}

func (f *fakePayrollRepo) GetPayrolls(artistID *int64, month *time.Time, page, pageSize int) ([]models.Payroll, int, error) {
	return f.getPayrolls(artistID, month, page, pageSize)
}

func (f *fakePayrollRepo) GetPayrollByID(id int64) (*models.Payroll, error) {
	return f.getPayrollByID(id)
}

func (f *fakePayrollRepo) UpdatePayrollStatus(executor repositories.SQLExecutor, id int64, status string) error {
	return f.updatePayrollStatus(executor, id, status)
}

func (f *fakePayrollRepo) GetCompletedTaskEarnings(from, to time.Time) ([]models.CompletedTaskEarning, error) {
	return f.getEarnings(from, to)
}

func (f *fakePayrollRepo) GetAnnualPayrollTotals(year int) ([]models.ArtistPayrollTotal, error) {
	return f.getAnnualTotals(year)
}

func (f *fakePayrollRepo) GetMonthlyCompletionStats(year int) ([]models.MonthlyCompletionStat, error) {
	return f.getMonthlyStats(year)
}

func (f *fakePayrollRepo) UpsertAnnualBonus(executor repositories.SQLExecutor, bonus *models.AnnualBonus) error {
	return f.upsertAnnualBonus(executor, bonus)
}

func (f *fakePayrollRepo) GetAnnualBonuses(year int) ([]models.AnnualBonus, error) {
	return f.getAnnualBonuses(year)
}

func (f *fakePayrollRepo) PayBonuses(executor repositories.SQLExecutor, year int, artistIDs []int64) (int64, error) {
	return f.payBonuses(executor, year, artistIDs)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAggregateEarnings(t *testing.T) {
	earnings := []models.CompletedTaskEarning{
		{ArtistID: 2, ArtistName: "Wanjiku", Stage: "3", Accepted: 5, StageCost: dec(t, "3.80")},
		{ArtistID: 1, ArtistName: "Omondi", Stage: "1", Accepted: 10, StageCost: dec(t, "2.50")},
		{ArtistID: 2, ArtistName: "Wanjiku", Stage: "4", Accepted: 4, StageCost: dec(t, "14.00")},
	}

	summaries := aggregateEarnings(earnings)
	require.Len(t, summaries, 2)

	// Sorted by artist ID.
	assert.Equal(t, int64(1), summaries[0].ArtistID)
	assert.Equal(t, "Omondi", summaries[0].ArtistName)
	assert.Equal(t, 10, summaries[0].ItemQty)
	assert.True(t, summaries[0].TotalEarnings.Equal(dec(t, "25.00")),
		"got %s", summaries[0].TotalEarnings)

	// 5*3.80 + 4*14.00 = 19.00 + 56.00 = 75.00
	assert.Equal(t, int64(2), summaries[1].ArtistID)
	assert.Equal(t, 9, summaries[1].ItemQty)
	assert.True(t, summaries[1].TotalEarnings.Equal(dec(t, "75.00")),
		"got %s", summaries[1].TotalEarnings)
}

func TestAggregateEarningsRoundsHalfUp(t *testing.T) {
	earnings := []models.CompletedTaskEarning{
		{ArtistID: 1, ArtistName: "Omondi", Stage: "2", Accepted: 1, StageCost: dec(t, "0.005")},
	}
	summaries := aggregateEarnings(earnings)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].TotalEarnings.Equal(dec(t, "0.01")),
		"got %s", summaries[0].TotalEarnings)
}

func TestAggregateEarningsEmpty(t *testing.T) {
	assert.Empty(t, aggregateEarnings(nil))
}

func TestParseMonth(t *testing.T) {
	parsed, err := parseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 1, parsed.Day())

	_, err = parseMonth("2026-3")
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = parseMonth("March 2026")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestPeriodBounds(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	from, to, err := periodBounds(feb, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, feb, from)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), to)

	start, end := 10, 20
	from, to, err = periodBounds(feb, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC), from)
	// Day 20 is included, so the exclusive bound is the 21st.
	assert.Equal(t, time.Date(2026, time.February, 21, 0, 0, 0, 0, time.UTC), to)

	bad := 30 // 2026 is not a leap year
	_, _, err = periodBounds(feb, nil, &bad)
	assert.ErrorIs(t, err, ErrInvalidDayRange)

	start, end = 15, 10
	_, _, err = periodBounds(feb, &start, &end)
	assert.ErrorIs(t, err, ErrInvalidDayRange)
}

func TestGeneratePayrollRejectsExistingMonth(t *testing.T) {
	repo := &fakePayrollRepo{
		hasPayrollForMonth: func(month time.Time) (bool, error) { return true, nil },
	}
	svc := NewPayrollService(repo, nil, dec(t, "5"))

	_, err := svc.GeneratePayroll(GeneratePayrollRequest{Month: "2026-02"})
	assert.ErrorIs(t, err, ErrPayrollExists)
}

func TestGeneratePayrollNoWorkIsEmpty(t *testing.T) {
	repo := &fakePayrollRepo{
		hasPayrollForMonth: func(month time.Time) (bool, error) { return false, nil },
		getEarnings: func(from, to time.Time) ([]models.CompletedTaskEarning, error) {
			return nil, nil
		},
	}
	svc := NewPayrollService(repo, nil, dec(t, "5"))

	payrolls, err := svc.GeneratePayroll(GeneratePayrollRequest{Month: "2026-02"})
	require.NoError(t, err)
	assert.Empty(t, payrolls)
}

func TestGeneratePayroll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var created []models.Payroll
	repo := &fakePayrollRepo{
		hasPayrollForMonth: func(month time.Time) (bool, error) { return false, nil },
		getEarnings: func(from, to time.Time) ([]models.CompletedTaskEarning, error) {
			assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), from)
			assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), to)
			return []models.CompletedTaskEarning{
				{ArtistID: 1, ArtistName: "Omondi", Stage: "1", Accepted: 2, StageCost: dec(t, "9.50")},
			}, nil
		},
		createPayroll: func(executor repositories.SQLExecutor, payroll *models.Payroll) (int64, error) {
			payroll.ID = int64(len(created) + 1)
			created = append(created, *payroll)
			return payroll.ID, nil
		},
	}
	svc := NewPayrollService(repo, db, dec(t, "5"))

	payrolls, err := svc.GeneratePayroll(GeneratePayrollRequest{Month: "2026-02"})
	require.NoError(t, err)
	require.Len(t, payrolls, 1)
	assert.Equal(t, int64(1), payrolls[0].ArtistID)
	assert.Equal(t, 2, payrolls[0].ItemQty)
	assert.True(t, payrolls[0].TotalEarnings.Equal(dec(t, "19.00")),
		"got %s", payrolls[0].TotalEarnings)
	assert.Equal(t, models.PayrollPending, payrolls[0].Status)
	require.NotNil(t, payrolls[0].ArtistName)
	assert.Equal(t, "Omondi", *payrolls[0].ArtistName)

	require.Len(t, created, 1)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), created[0].Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeneratePayrollDuplicateDuringInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakePayrollRepo{
		hasPayrollForMonth: func(month time.Time) (bool, error) { return false, nil },
		getEarnings: func(from, to time.Time) ([]models.CompletedTaskEarning, error) {
			return []models.CompletedTaskEarning{
				{ArtistID: 1, ArtistName: "Omondi", Stage: "1", Accepted: 1, StageCost: dec(t, "1.00")},
			}, nil
		},
		createPayroll: func(executor repositories.SQLExecutor, payroll *models.Payroll) (int64, error) {
			return 0, repositories.ErrDuplicateKey
		},
	}
	svc := NewPayrollService(repo, db, dec(t, "5"))

	_, err = svc.GeneratePayroll(GeneratePayrollRequest{Month: "2026-02"})
	assert.ErrorIs(t, err, ErrPayrollExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnualArtistStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakePayrollRepo{
		getAnnualTotals: func(year int) ([]models.ArtistPayrollTotal, error) {
			assert.Equal(t, 2026, year)
			return []models.ArtistPayrollTotal{
				{ArtistID: 7, ArtistName: "Achieng", TotalEarnings: dec(t, "1500.00"), ItemQty: 100},
			}, nil
		},
		upsertAnnualBonus: func(executor repositories.SQLExecutor, bonus *models.AnnualBonus) error {
			// A recompute of an already-paid year keeps its status.
			bonus.ID = 11
			bonus.Status = models.PayrollPaid
			return nil
		},
	}
	svc := NewPayrollService(repo, db, dec(t, "5"))

	stats, err := svc.AnnualArtistStats(AnnualStatsRequest{Year: 2026})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(7), stats[0].ArtistID)
	assert.Equal(t, 100, stats[0].TotalItems)
	assert.True(t, stats[0].TotalEarnings.Equal(dec(t, "1500.00")), "got %s", stats[0].TotalEarnings)
	// 1500.00 * 5% = 75.00
	assert.True(t, stats[0].BonusAmount.Equal(dec(t, "75.00")), "got %s", stats[0].BonusAmount)
	assert.Equal(t, models.PayrollPaid, stats[0].BonusStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Work that never went through a monthly payroll run earns no bonus,
// even when completed-task facts exist for the year.
func TestAnnualArtistStatsUnbookedWorkEarnsNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakePayrollRepo{
		getAnnualTotals: func(year int) ([]models.ArtistPayrollTotal, error) {
			return []models.ArtistPayrollTotal{}, nil
		},
		getEarnings: func(from, to time.Time) ([]models.CompletedTaskEarning, error) {
			t.Fatal("annual stats must read booked payrolls, not raw facts")
			return nil, nil
		},
		upsertAnnualBonus: func(executor repositories.SQLExecutor, bonus *models.AnnualBonus) error {
			t.Fatal("no bonus rows expected without booked payrolls")
			return nil
		},
	}
	svc := NewPayrollService(repo, db, dec(t, "5"))

	stats, err := svc.AnnualArtistStats(AnnualStatsRequest{Year: 2026})
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnualArtistStatsValidation(t *testing.T) {
	svc := NewPayrollService(&fakePayrollRepo{}, nil, dec(t, "5"))

	_, err := svc.AnnualArtistStats(AnnualStatsRequest{Year: 1800})
	assert.ErrorIs(t, err, ErrValidation)

	negative := dec(t, "-1")
	_, err = svc.AnnualArtistStats(AnnualStatsRequest{Year: 2026, BonusPercentage: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	excessive := dec(t, "150")
	_, err = svc.AnnualArtistStats(AnnualStatsRequest{Year: 2026, BonusPercentage: &excessive})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetPayrollsInvalidMonth(t *testing.T) {
	svc := NewPayrollService(&fakePayrollRepo{}, nil, dec(t, "5"))
	_, _, err := svc.GetPayrolls(nil, "02-2026", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
