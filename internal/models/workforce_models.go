package models

import "time"

// Specialization groups artists by craft (carving, painting, ...).
type Specialization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Artist represents a piece-rate craftsperson whose completed work
// feeds payroll.
type Artist struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name" db:"name" binding:"required"`
	PhoneNumber      string          `json:"phone_number" db:"phone_number"`
	SpecializationID *int64          `json:"specialization_id,omitempty" db:"specialization_id"`
	IsActive         bool            `json:"is_active" db:"is_active"`
	HireDate         time.Time       `json:"hire_date" db:"hire_date"`
	Specialization   *Specialization `json:"specialization,omitempty"` // For joining with Specialization
}

// StaffMember represents a salaried back-office employee linked to a
// login account.
type StaffMember struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id" db:"user_id"`
	Role     string  `json:"role" db:"role"`     // proprietor, manager, supervisor
	Status   string  `json:"status" db:"status"` // active, inactive
	HireDate string  `json:"hire_date" db:"hire_date"`
	User     *User   `json:"user,omitempty"` // For joining with User details
}

// StaffMember roles
const (
	StaffRoleProprietor = "proprietor"
	StaffRoleManager    = "manager"
	StaffRoleSupervisor = "supervisor"
)

// StaffMember statuses
const (
	StaffStatusActive   = "active"
	StaffStatusInactive = "inactive"
)
