package models

import "time"

// CadetStatus represents the registration lifecycle of a cadet.
type CadetStatus string

const (
	CadetStatusPending  CadetStatus = "PENDING"
	CadetStatusApproved CadetStatus = "APPROVED"
	CadetStatusRejected CadetStatus = "REJECTED"
	CadetStatusArchived CadetStatus = "ARCHIVED"
)

// Valid returns true when the status is a supported value.
func (s CadetStatus) Valid() bool {
	switch s {
	case CadetStatusPending, CadetStatusApproved, CadetStatusRejected, CadetStatusArchived:
		return true
	default:
		return false
	}
}

// Cadet represents a student enrolled for ROTC training.
type Cadet struct {
	ID            string      `db:"id" json:"id"`
	StudentNumber string      `db:"student_number" json:"student_number"`
	FirstName     string      `db:"first_name" json:"first_name"`
	LastName      string      `db:"last_name" json:"last_name"`
	MiddleName    *string     `db:"middle_name" json:"middle_name,omitempty"`
	Campus        string      `db:"campus" json:"campus"`
	Course        string      `db:"course" json:"course"`
	YearLevel     int         `db:"year_level" json:"year_level"`
	Section       string      `db:"section" json:"section"`
	Platoon       string      `db:"platoon" json:"platoon"`
	Company       string      `db:"company" json:"company"`
	Battalion     string      `db:"battalion" json:"battalion"`
	Status        CadetStatus `db:"status" json:"status"`
	UserID        *string     `db:"user_id" json:"user_id,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// FullName joins the cadet's name parts for display and exports.
func (c Cadet) FullName() string {
	if c.MiddleName != nil && *c.MiddleName != "" {
		return c.LastName + ", " + c.FirstName + " " + *c.MiddleName
	}
	return c.LastName + ", " + c.FirstName
}

// CadetFilter encapsulates allowed search parameters for listing cadets.
type CadetFilter struct {
	Search    string
	Status    *CadetStatus
	Campus    string
	Platoon   string
	Company   string
	Battalion string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BulkOperationMode controls how bulk writes behave on errors.
type BulkOperationMode string

const (
	BulkModeAtomic         BulkOperationMode = "atomic"
	BulkModePartialOnError BulkOperationMode = "partialOnError"
)

// BulkCadetOutcome reports one cadet's result inside a bulk operation.
type BulkCadetOutcome struct {
	CadetID string `json:"cadet_id"`
	Reason  string `json:"reason"`
}

// BulkSaveResult summarises a bulk write: how many rows landed and which
// ones were skipped, with reasons.
type BulkSaveResult struct {
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
	Failures     []BulkCadetOutcome `json:"failures,omitempty"`
}

// RegisterCadetRequest is the public enrollment payload. It creates both
// the cadet profile (PENDING) and the linked user account.
type RegisterCadetRequest struct {
	StudentNumber string  `json:"student_number" validate:"required"`
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	MiddleName    *string `json:"middle_name,omitempty"`
	Campus        string  `json:"campus" validate:"required"`
	Course        string  `json:"course" validate:"required"`
	YearLevel     int     `json:"year_level" validate:"required,min=1,max=6"`
	Section       string  `json:"section" validate:"required"`
	Platoon       string  `json:"platoon" validate:"required"`
	Company       string  `json:"company" validate:"required"`
	Battalion     string  `json:"battalion" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
}

// UpdateCadetRequest modifies a cadet's profile fields.
type UpdateCadetRequest struct {
	StudentNumber *string `json:"student_number,omitempty"`
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	MiddleName    *string `json:"middle_name,omitempty"`
	Campus        *string `json:"campus,omitempty"`
	Course        *string `json:"course,omitempty"`
	YearLevel     *int    `json:"year_level,omitempty" validate:"omitempty,min=1,max=6"`
	Section       *string `json:"section,omitempty"`
	Platoon       *string `json:"platoon,omitempty"`
	Company       *string `json:"company,omitempty"`
	Battalion     *string `json:"battalion,omitempty"`
}

// ArchiveAllRequest controls the end-of-term bulk archive.
type ArchiveAllRequest struct {
	Mode BulkOperationMode `json:"mode,omitempty"`
}
