package models

import (
	"time"

	"github.com/lib/pq"
)

// Per-week aptitude defaults and caps.
const (
	DefaultWeeklyMerit = 10
	MaxWeeklyMerit     = 10
)

// AptitudeRecord stores one cadet's weekly merit and demerit values for a
// semester. Both arrays are always sized to the semester's week count.
type AptitudeRecord struct {
	ID            string        `db:"id" json:"id"`
	CadetID       string        `db:"cadet_id" json:"cadet_id"`
	SemesterID    string        `db:"semester_id" json:"semester_id"`
	Merits        pq.Int64Array `db:"merits" json:"merits"`
	Demerits      pq.Int64Array `db:"demerits" json:"demerits"`
	TotalMerits   int           `db:"total_merits" json:"total_merits"`
	AptitudeScore int           `db:"aptitude_score" json:"aptitude_score"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AptitudeRosterRow extends the record with cadet metadata.
type AptitudeRosterRow struct {
	AptitudeRecord
	StudentNumber string `db:"student_number" json:"student_number"`
	CadetName     string `db:"cadet_name" json:"cadet_name"`
	Platoon       string `db:"platoon" json:"platoon"`
	Company       string `db:"company" json:"company"`
}

// SaveAptitudeRequest writes one cadet's weekly merits and demerits.
type SaveAptitudeRequest struct {
	CadetID  string `json:"cadet_id" validate:"required"`
	Merits   []int  `json:"merits" validate:"dive,min=0,max=10"`
	Demerits []int  `json:"demerits" validate:"required,dive,min=0"`
}

// BulkSaveAptitudeRequest writes aptitude values for many cadets at once.
type BulkSaveAptitudeRequest struct {
	Mode  BulkOperationMode     `json:"mode,omitempty"`
	Items []SaveAptitudeRequest `json:"items" validate:"required,min=1,dive"`
}
