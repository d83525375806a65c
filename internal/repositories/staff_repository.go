package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/lib/pq"
)

// StaffRepository defines the interface for staff-member database operations.
type StaffRepository interface {
	CreateStaffMember(executor SQLExecutor, staff *models.StaffMember) (int64, error)
	GetStaffMemberByID(id int64) (*models.StaffMember, error)
	GetStaffMemberByUserID(userID int64) (*models.StaffMember, error)
	GetStaffMembers(page, pageSize int) ([]models.StaffMember, int, error)
	UpdateStaffMember(executor SQLExecutor, staff *models.StaffMember) error
	DeleteStaffMember(executor SQLExecutor, id int64) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) CreateStaffMember(executor SQLExecutor, staff *models.StaffMember) (int64, error) {
	query := `INSERT INTO staff_members (user_id, role, status, hire_date)
	          VALUES ($1, $2, $3, CURRENT_DATE)
	          RETURNING id`
	err := executor.QueryRow(query, staff.UserID, staff.Role, staff.Status).Scan(&staff.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: user %d already has a staff record (constraint: %s)", ErrDuplicateKey, staff.UserID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating staff member: %v", ErrDatabaseError, err)
	}
	return staff.ID, nil
}

func (r *staffRepository) GetStaffMemberByID(id int64) (*models.StaffMember, error) {
	staff := &models.StaffMember{}
	user := &models.User{}
	query := `SELECT sm.id, sm.user_id, sm.role, sm.status, sm.hire_date,
	                 u.username, u.email, u.full_name
	          FROM staff_members sm
	          JOIN users u ON sm.user_id = u.id
	          WHERE sm.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&staff.ID, &staff.UserID, &staff.Role, &staff.Status, &staff.HireDate,
		&user.Username, &user.Email, &user.FullName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff member by ID %d: %v", ErrDatabaseError, id, err)
	}
	user.ID = staff.UserID
	staff.User = user
	return staff, nil
}

func (r *staffRepository) GetStaffMemberByUserID(userID int64) (*models.StaffMember, error) {
	staff := &models.StaffMember{}
	user := &models.User{}
	query := `SELECT sm.id, sm.user_id, sm.role, sm.status, sm.hire_date,
	                 u.username, u.email, u.full_name
	          FROM staff_members sm
	          JOIN users u ON sm.user_id = u.id
	          WHERE sm.user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(
		&staff.ID, &staff.UserID, &staff.Role, &staff.Status, &staff.HireDate,
		&user.Username, &user.Email, &user.FullName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff member for user %d: %v", ErrDatabaseError, userID, err)
	}
	user.ID = staff.UserID
	staff.User = user
	return staff, nil
}

func (r *staffRepository) GetStaffMembers(page, pageSize int) ([]models.StaffMember, int, error) {
	staffMembers := []models.StaffMember{}
	totalCount := 0
	query := `SELECT sm.id, sm.user_id, sm.role, sm.status, sm.hire_date,
	                 u.username, u.email, u.full_name,
	                 COUNT(*) OVER() AS total_count
	          FROM staff_members sm
	          JOIN users u ON sm.user_id = u.id
	          ORDER BY sm.id
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting staff members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var staff models.StaffMember
		var user models.User
		if err := rows.Scan(&staff.ID, &staff.UserID, &staff.Role, &staff.Status, &staff.HireDate,
			&user.Username, &user.Email, &user.FullName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning staff member: %v", ErrDatabaseError, err)
		}
		user.ID = staff.UserID
		staff.User = &user
		staffMembers = append(staffMembers, staff)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating staff members: %v", ErrDatabaseError, err)
	}
	return staffMembers, totalCount, nil
}

func (r *staffRepository) UpdateStaffMember(executor SQLExecutor, staff *models.StaffMember) error {
	query := `UPDATE staff_members SET role = $1, status = $2 WHERE id = $3`
	result, err := executor.Exec(query, staff.Role, staff.Status, staff.ID)
	if err != nil {
		return fmt.Errorf("%w: updating staff member ID %d: %v", ErrDatabaseError, staff.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *staffRepository) DeleteStaffMember(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM staff_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting staff member ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
