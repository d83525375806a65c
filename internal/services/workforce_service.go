package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
)

var (
	ErrArtistNotFound         = errors.New("artist not found")
	ErrSpecializationNotFound = errors.New("specialization not found")
	ErrSpecializationExists   = errors.New("specialization already exists")
)

// --- DTOs ---

// CreateArtistRequest DTO
type CreateArtistRequest struct {
	Name             string `json:"name" binding:"required"`
	PhoneNumber      string `json:"phone_number" binding:"required"`
	SpecializationID *int64 `json:"specialization_id"`
	HireDate         string `json:"hire_date"` // YYYY-MM-DD, defaults to today
}

// UpdateArtistRequest DTO
type UpdateArtistRequest struct {
	Name             *string `json:"name"`
	PhoneNumber      *string `json:"phone_number"`
	SpecializationID *int64  `json:"specialization_id"`
	IsActive         *bool   `json:"is_active"`
}

// CreateSpecializationRequest DTO
type CreateSpecializationRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- WorkforceService Interface ---
type WorkforceService interface {
	CreateArtist(req CreateArtistRequest) (*models.Artist, error)
	GetArtistByID(id int64) (*models.Artist, error)
	GetArtists(search string, activeOnly bool, page, pageSize int) ([]models.Artist, int, error)
	UpdateArtist(id int64, req UpdateArtistRequest) (*models.Artist, error)
	DeactivateArtist(id int64) error

	CreateSpecialization(req CreateSpecializationRequest) (*models.Specialization, error)
	GetSpecializations(page, pageSize int) ([]models.Specialization, int, error)
	UpdateSpecialization(id int64, req CreateSpecializationRequest) (*models.Specialization, error)
	DeleteSpecialization(id int64) error
}

type workforceService struct {
	workforceRepo repositories.WorkforceRepository
	db            *sql.DB
}

// NewWorkforceService creates a new instance of WorkforceService.
func NewWorkforceService(wr repositories.WorkforceRepository, db *sql.DB) WorkforceService {
	return &workforceService{workforceRepo: wr, db: db}
}

func (s *workforceService) CreateArtist(req CreateArtistRequest) (*models.Artist, error) {
	hireDate := time.Now()
	if req.HireDate != "" {
		parsed, err := time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			return nil, fmt.Errorf("%w: hire_date must be YYYY-MM-DD", ErrValidation)
		}
		hireDate = parsed
	}

	artist := models.Artist{
		Name:             strings.TrimSpace(req.Name),
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		SpecializationID: req.SpecializationID,
		IsActive:         true,
		HireDate:         hireDate,
	}
	if artist.Name == "" {
		return nil, fmt.Errorf("%w: artist name cannot be empty", ErrValidation)
	}

	createdID, err := s.workforceRepo.CreateArtist(s.db, &artist)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, fmt.Errorf("failed to create artist: %w", err)
	}
	return s.workforceRepo.GetArtistByID(createdID)
}

func (s *workforceService) GetArtistByID(id int64) (*models.Artist, error) {
	artist, err := s.workforceRepo.GetArtistByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return artist, nil
}

func (s *workforceService) GetArtists(search string, activeOnly bool, page, pageSize int) ([]models.Artist, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	artists, totalCount, err := s.workforceRepo.GetArtists(search, activeOnly, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get artists: %w", err)
	}
	return artists, totalCount, nil
}

func (s *workforceService) UpdateArtist(id int64, req UpdateArtistRequest) (*models.Artist, error) {
	artist, err := s.workforceRepo.GetArtistByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to fetch artist for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: artist name cannot be empty", ErrValidation)
		}
		artist.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhoneNumber != nil {
		artist.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.SpecializationID != nil {
		artist.SpecializationID = req.SpecializationID
	}
	if req.IsActive != nil {
		artist.IsActive = *req.IsActive
	}

	if err := s.workforceRepo.UpdateArtist(s.db, artist); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to update artist: %w", err)
	}
	return s.workforceRepo.GetArtistByID(id)
}

// DeactivateArtist soft-deletes: completed-task history must survive,
// so artists are never removed.
func (s *workforceService) DeactivateArtist(id int64) error {
	artist, err := s.workforceRepo.GetArtistByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrArtistNotFound
		}
		return fmt.Errorf("failed to fetch artist: %w", err)
	}
	artist.IsActive = false
	if err := s.workforceRepo.UpdateArtist(s.db, artist); err != nil {
		return fmt.Errorf("failed to deactivate artist: %w", err)
	}
	return nil
}

func (s *workforceService) CreateSpecialization(req CreateSpecializationRequest) (*models.Specialization, error) {
	spec := models.Specialization{Name: strings.TrimSpace(req.Name)}
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: specialization name cannot be empty", ErrValidation)
	}
	if _, err := s.workforceRepo.CreateSpecialization(s.db, &spec); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSpecializationExists
		}
		return nil, fmt.Errorf("failed to create specialization: %w", err)
	}
	return &spec, nil
}

func (s *workforceService) GetSpecializations(page, pageSize int) ([]models.Specialization, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	specs, totalCount, err := s.workforceRepo.GetSpecializations(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get specializations: %w", err)
	}
	return specs, totalCount, nil
}

func (s *workforceService) UpdateSpecialization(id int64, req CreateSpecializationRequest) (*models.Specialization, error) {
	spec := models.Specialization{ID: id, Name: strings.TrimSpace(req.Name)}
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: specialization name cannot be empty", ErrValidation)
	}
	if err := s.workforceRepo.UpdateSpecialization(s.db, &spec); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSpecializationNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSpecializationExists
		}
		return nil, fmt.Errorf("failed to update specialization: %w", err)
	}
	return &spec, nil
}

func (s *workforceService) DeleteSpecialization(id int64) error {
	if err := s.workforceRepo.DeleteSpecialization(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSpecializationNotFound
		}
		return fmt.Errorf("failed to delete specialization: %w", err)
	}
	return nil
}
