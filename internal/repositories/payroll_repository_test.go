package repositories

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayrollDuplicateMonth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO payrolls`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payrolls_artist_id_month_key"})

	repo := NewPayrollRepository(db)
	payroll := models.Payroll{
		ArtistID:      1,
		ItemQty:       4,
		TotalEarnings: decimal.NewFromInt(100),
		Month:         time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = repo.CreatePayroll(db, &payroll)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayroll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	month := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO payrolls`).
		WithArgs(int64(1), 4, decimalArg("100"), models.PayrollPending, month, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	repo := NewPayrollRepository(db)
	payroll := models.Payroll{
		ArtistID:      1,
		ItemQty:       4,
		TotalEarnings: decimal.RequireFromString("100"),
		Month:         month,
	}
	id, err := repo.CreatePayroll(db, &payroll)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, models.PayrollPending, payroll.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPayrollForMonth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	month := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM payrolls WHERE month = \$1\)`).
		WithArgs(month).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPayrollRepository(db)
	exists, err := repo.HasPayrollForMonth(month)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompletedTaskEarnings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows := sqlmock.NewRows([]string{"artist_id", "name", "current_stage", "accepted", "stage_cost"}).
		AddRow(int64(1), "Omondi", "1", 2, "9.50").
		AddRow(int64(2), "Wanjiku", "6", 5, "3.80")
	mock.ExpectQuery(`FROM completed_tasks ct`).
		WithArgs(from, to).
		WillReturnRows(rows)

	repo := NewPayrollRepository(db)
	earnings, err := repo.GetCompletedTaskEarnings(from, to)
	require.NoError(t, err)
	require.Len(t, earnings, 2)
	assert.Equal(t, "Omondi", earnings[0].ArtistName)
	assert.Equal(t, "1", earnings[0].Stage)
	assert.True(t, earnings[0].StageCost.Equal(decimal.RequireFromString("9.50")))
	assert.Equal(t, 5, earnings[1].Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnnualPayrollTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"artist_id", "name", "total_earnings", "item_qty"}).
		AddRow(int64(1), "Omondi", "1200.00", 80).
		AddRow(int64(2), "Wanjiku", "950.50", 41)
	mock.ExpectQuery(`FROM payrolls p`).
		WithArgs(2026).
		WillReturnRows(rows)

	repo := NewPayrollRepository(db)
	totals, err := repo.GetAnnualPayrollTotals(2026)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "Omondi", totals[0].ArtistName)
	assert.True(t, totals[0].TotalEarnings.Equal(decimal.RequireFromString("1200.00")))
	assert.Equal(t, 41, totals[1].ItemQty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePayrollStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE payrolls SET status`).
		WithArgs(models.PayrollPaid, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPayrollRepository(db)
	err = repo.UpdatePayrollStatus(db, 42, models.PayrollPaid)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAnnualBonusPreservesStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The stored row was already paid; the upsert returns that status
	// and the incoming pending status is discarded.
	mock.ExpectQuery(`INSERT INTO annual_bonuses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(int64(3), models.PayrollPaid))

	repo := NewPayrollRepository(db)
	bonus := models.AnnualBonus{
		ArtistID:        7,
		Year:            2026,
		AnnualEarnings:  decimal.RequireFromString("1500.00"),
		BonusPercentage: decimal.RequireFromString("5"),
		BonusAmount:     decimal.RequireFromString("75.00"),
	}
	err = repo.UpsertAnnualBonus(db, &bonus)
	require.NoError(t, err)
	assert.Equal(t, int64(3), bonus.ID)
	assert.Equal(t, models.PayrollPaid, bonus.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayBonuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE annual_bonuses SET status`).
		WithArgs(models.PayrollPaid, sqlmock.AnyArg(), 2026, models.PayrollPending).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewPayrollRepository(db)
	paid, err := repo.PayBonuses(db, 2026, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), paid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayBonusesArtistSubset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE annual_bonuses SET status .+ artist_id = ANY`).
		WithArgs(models.PayrollPaid, sqlmock.AnyArg(), 2026, models.PayrollPending, pq.Array([]int64{4, 7})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewPayrollRepository(db)
	paid, err := repo.PayBonuses(db, 2026, []int64{4, 7})
	require.NoError(t, err)
	assert.Equal(t, int64(2), paid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// decimalArg matches a shopspring decimal passed as a driver value.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		if b, okB := v.([]byte); okB {
			s = string(b)
			ok = true
		}
	}
	if !ok {
		return false
	}
	want, err := decimal.NewFromString(string(d))
	if err != nil {
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return want.Equal(got)
}
