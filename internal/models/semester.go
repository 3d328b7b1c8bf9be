package models

import "time"

// Term week counts used when deriving a semester's instructional length.
const (
	FirstTermWeeks  = 10
	SecondTermWeeks = 15
)

// SemesterPeriod models one academic term. The week count is fixed at
// creation and parameterizes every scoring formula for its records.
type SemesterPeriod struct {
	ID           string    `db:"id" json:"id"`
	Label        string    `db:"label" json:"label"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	TermNumber   int       `db:"term_number" json:"term_number"`
	WeekCount    int       `db:"week_count" json:"week_count"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WeeksForTerm maps a term number to its instructional week count.
func WeeksForTerm(termNumber int) int {
	if termNumber == 2 {
		return SecondTermWeeks
	}
	return FirstTermWeeks
}

// CreateSemesterRequest opens a new term. The week count is derived from
// the term number and never supplied by the client.
type CreateSemesterRequest struct {
	Label        string `json:"label" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	TermNumber   int    `json:"term_number" validate:"required,min=1,max=2"`
}

// UpdateSemesterRequest renames a semester.
type UpdateSemesterRequest struct {
	Label        string `json:"label" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// SemesterFilter defines filters supported by list endpoints.
type SemesterFilter struct {
	AcademicYear string
	IsActive     *bool
	Page         int
	PageSize     int
}
