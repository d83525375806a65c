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

// WorkforceRepository defines the interface for artist and specialization
// database operations.
type WorkforceRepository interface {
	// Artist methods
	CreateArtist(executor SQLExecutor, artist *models.Artist) (int64, error)
	GetArtistByID(id int64) (*models.Artist, error)
	GetArtists(search string, activeOnly bool, page, pageSize int) ([]models.Artist, int, error)
	UpdateArtist(executor SQLExecutor, artist *models.Artist) error
	DeleteArtist(executor SQLExecutor, id int64) error

	// Specialization methods
	CreateSpecialization(executor SQLExecutor, spec *models.Specialization) (int64, error)
	GetSpecializationByID(id int64) (*models.Specialization, error)
	GetSpecializations(page, pageSize int) ([]models.Specialization, int, error)
	UpdateSpecialization(executor SQLExecutor, spec *models.Specialization) error
	DeleteSpecialization(executor SQLExecutor, id int64) error
}

type workforceRepository struct {
	db *sql.DB
}

// NewWorkforceRepository creates a new instance of WorkforceRepository.
func NewWorkforceRepository(db *sql.DB) WorkforceRepository {
	return &workforceRepository{db: db}
}

// --- Artist Methods ---

func (r *workforceRepository) CreateArtist(executor SQLExecutor, artist *models.Artist) (int64, error) {
	query := `INSERT INTO artists (name, phone_number, specialization_id, is_active, hire_date)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	var specID sql.NullInt64
	if artist.SpecializationID != nil {
		specID = sql.NullInt64{Int64: *artist.SpecializationID, Valid: true}
	}
	err := executor.QueryRow(query, artist.Name, artist.PhoneNumber, specID, artist.IsActive, time.Now()).Scan(&artist.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating artist: %v", ErrDatabaseError, err)
	}
	return artist.ID, nil
}

func (r *workforceRepository) GetArtistByID(id int64) (*models.Artist, error) {
	artist := &models.Artist{}
	query := `SELECT a.id, a.name, a.phone_number, a.specialization_id, a.is_active, a.hire_date,
	                 COALESCE(s.name, '') AS specialization_name
	          FROM artists a
	          LEFT JOIN specializations s ON a.specialization_id = s.id
	          WHERE a.id = $1`
	var specID sql.NullInt64
	var specName string
	err := r.db.QueryRow(query, id).Scan(
		&artist.ID, &artist.Name, &artist.PhoneNumber, &specID, &artist.IsActive, &artist.HireDate,
		&specName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting artist by ID %d: %v", ErrDatabaseError, id, err)
	}
	if specID.Valid {
		artist.SpecializationID = &specID.Int64
		artist.Specialization = &models.Specialization{ID: specID.Int64, Name: specName}
	}
	return artist, nil
}

func (r *workforceRepository) GetArtists(search string, activeOnly bool, page, pageSize int) ([]models.Artist, int, error) {
	artists := []models.Artist{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT a.id, a.name, a.phone_number, a.specialization_id, a.is_active, a.hire_date,
	                 COALESCE(s.name, '') AS specialization_name,
	                 COUNT(*) OVER() AS total_count
	          FROM artists a
	          LEFT JOIN specializations s ON a.specialization_id = s.id`)

	var conditions []string
	var args []interface{}
	argCount := 1
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(a.name ILIKE $%d OR a.phone_number ILIKE $%d OR s.name ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+search+"%")
		argCount++
	}
	if activeOnly {
		conditions = append(conditions, "a.is_active")
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY a.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting artists: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var artist models.Artist
		var specID sql.NullInt64
		var specName string
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.PhoneNumber, &specID, &artist.IsActive,
			&artist.HireDate, &specName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning artist: %v", ErrDatabaseError, err)
		}
		if specID.Valid {
			artist.SpecializationID = &specID.Int64
			artist.Specialization = &models.Specialization{ID: specID.Int64, Name: specName}
		}
		artists = append(artists, artist)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating artists: %v", ErrDatabaseError, err)
	}
	return artists, totalCount, nil
}

func (r *workforceRepository) UpdateArtist(executor SQLExecutor, artist *models.Artist) error {
	query := `UPDATE artists SET name = $1, phone_number = $2, specialization_id = $3, is_active = $4
	          WHERE id = $5`
	var specID sql.NullInt64
	if artist.SpecializationID != nil {
		specID = sql.NullInt64{Int64: *artist.SpecializationID, Valid: true}
	}
	result, err := executor.Exec(query, artist.Name, artist.PhoneNumber, specID, artist.IsActive, artist.ID)
	if err != nil {
		return fmt.Errorf("%w: updating artist ID %d: %v", ErrDatabaseError, artist.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workforceRepository) DeleteArtist(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM artists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting artist ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Specialization Methods ---

func (r *workforceRepository) CreateSpecialization(executor SQLExecutor, spec *models.Specialization) (int64, error) {
	query := `INSERT INTO specializations (name, created_at, updated_at)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, spec.Name, currentTime, currentTime).Scan(&spec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: specialization name '%s' already exists (constraint: %s)", ErrDuplicateKey, spec.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating specialization: %v", ErrDatabaseError, err)
	}
	return spec.ID, nil
}

func (r *workforceRepository) GetSpecializationByID(id int64) (*models.Specialization, error) {
	spec := &models.Specialization{}
	query := `SELECT id, name, created_at, updated_at FROM specializations WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&spec.ID, &spec.Name, &spec.CreatedAt, &spec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting specialization by ID %d: %v", ErrDatabaseError, id, err)
	}
	return spec, nil
}

func (r *workforceRepository) GetSpecializations(page, pageSize int) ([]models.Specialization, int, error) {
	specs := []models.Specialization{}
	totalCount := 0
	query := `SELECT id, name, created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM specializations
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting specializations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var spec models.Specialization
		if err := rows.Scan(&spec.ID, &spec.Name, &spec.CreatedAt, &spec.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning specialization: %v", ErrDatabaseError, err)
		}
		specs = append(specs, spec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating specializations: %v", ErrDatabaseError, err)
	}
	return specs, totalCount, nil
}

func (r *workforceRepository) UpdateSpecialization(executor SQLExecutor, spec *models.Specialization) error {
	query := `UPDATE specializations SET name = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, spec.Name, time.Now(), spec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: specialization name '%s' already exists (constraint: %s)", ErrDuplicateKey, spec.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating specialization ID %d: %v", ErrDatabaseError, spec.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workforceRepository) DeleteSpecialization(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM specializations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting specialization ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
