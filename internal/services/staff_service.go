package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
)

var ErrStaffNotFound = errors.New("staff member not found")

// UpdateStaffRequest DTO
type UpdateStaffRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// --- StaffService Interface ---
type StaffService interface {
	GetStaffMemberByID(id int64) (*models.StaffMember, error)
	GetStaffMembers(page, pageSize int) ([]models.StaffMember, int, error)
	UpdateStaffMember(id int64, req UpdateStaffRequest) (*models.StaffMember, error)
	DeactivateStaffMember(id int64) error
}

type staffService struct {
	staffRepo repositories.StaffRepository
	db        *sql.DB
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(sr repositories.StaffRepository, db *sql.DB) StaffService {
	return &staffService{staffRepo: sr, db: db}
}

func (s *staffService) GetStaffMemberByID(id int64) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffMemberByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return staff, nil
}

func (s *staffService) GetStaffMembers(page, pageSize int) ([]models.StaffMember, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	staff, totalCount, err := s.staffRepo.GetStaffMembers(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get staff members: %w", err)
	}
	return staff, totalCount, nil
}

func (s *staffService) UpdateStaffMember(id int64, req UpdateStaffRequest) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffMemberByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to fetch staff member for update: %w", err)
	}

	if req.Role != nil {
		role := strings.ToLower(*req.Role)
		switch role {
		case models.StaffRoleProprietor, models.StaffRoleManager, models.StaffRoleSupervisor:
			staff.Role = role
		default:
			return nil, fmt.Errorf("%w: unknown role '%s'", ErrValidation, *req.Role)
		}
	}
	if req.Status != nil {
		status := strings.ToLower(*req.Status)
		switch status {
		case models.StaffStatusActive, models.StaffStatusInactive:
			staff.Status = status
		default:
			return nil, fmt.Errorf("%w: unknown status '%s'", ErrValidation, *req.Status)
		}
	}

	if err := s.staffRepo.UpdateStaffMember(s.db, staff); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}
	return s.staffRepo.GetStaffMemberByID(id)
}

// DeactivateStaffMember flips the record to inactive; staff rows are
// never deleted because orders reference them.
func (s *staffService) DeactivateStaffMember(id int64) error {
	staff, err := s.staffRepo.GetStaffMemberByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("failed to fetch staff member: %w", err)
	}
	staff.Status = models.StaffStatusInactive
	if err := s.staffRepo.UpdateStaffMember(s.db, staff); err != nil {
		return fmt.Errorf("failed to deactivate staff member: %w", err)
	}
	return nil
}
