package models

import (
	"time"

	"github.com/lib/pq"
)

// AttendanceRecord stores one cadet's weekly presence map for a semester.
// The present array is always sized to the semester's week count.
type AttendanceRecord struct {
	ID              string       `db:"id" json:"id"`
	CadetID         string       `db:"cadet_id" json:"cadet_id"`
	SemesterID      string       `db:"semester_id" json:"semester_id"`
	Present         pq.BoolArray `db:"present" json:"present"`
	WeeksPresent    int          `db:"weeks_present" json:"weeks_present"`
	AttendanceScore int          `db:"attendance_score" json:"attendance_score"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// AttendanceRosterRow extends the record with cadet metadata for the
// faculty score-entry screen.
type AttendanceRosterRow struct {
	AttendanceRecord
	StudentNumber string `db:"student_number" json:"student_number"`
	CadetName     string `db:"cadet_name" json:"cadet_name"`
	Platoon       string `db:"platoon" json:"platoon"`
	Company       string `db:"company" json:"company"`
}

// SaveAttendanceRequest writes one cadet's weekly presence flags.
type SaveAttendanceRequest struct {
	CadetID string `json:"cadet_id" validate:"required"`
	Present []bool `json:"present" validate:"required"`
}

// BulkSaveAttendanceRequest writes presence for many cadets at once.
type BulkSaveAttendanceRequest struct {
	Mode  BulkOperationMode       `json:"mode,omitempty"`
	Items []SaveAttendanceRequest `json:"items" validate:"required,min=1,dive"`
}
