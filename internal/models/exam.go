package models

import "time"

// ExamRecord stores one cadet's exam scores for a semester. Midterm fields
// are only meaningful for 15-week (second term) semesters.
type ExamRecord struct {
	ID                 string    `db:"id" json:"id"`
	CadetID            string    `db:"cadet_id" json:"cadet_id"`
	SemesterID         string    `db:"semester_id" json:"semester_id"`
	MidtermExam        *float64  `db:"midterm_exam" json:"midterm_exam,omitempty"`
	FinalExam          *float64  `db:"final_exam" json:"final_exam,omitempty"`
	MaxMidterm         float64   `db:"max_midterm" json:"max_midterm"`
	MaxFinal           float64   `db:"max_final" json:"max_final"`
	Average            float64   `db:"average" json:"average"`
	SubjectProficiency int       `db:"subject_proficiency" json:"subject_proficiency"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ExamRosterRow extends the record with cadet metadata.
type ExamRosterRow struct {
	ExamRecord
	StudentNumber string `db:"student_number" json:"student_number"`
	CadetName     string `db:"cadet_name" json:"cadet_name"`
	Platoon       string `db:"platoon" json:"platoon"`
	Company       string `db:"company" json:"company"`
}

// SaveExamRequest writes one cadet's raw exam scores. Zero max scales fall
// back to the configured default.
type SaveExamRequest struct {
	CadetID     string   `json:"cadet_id" validate:"required"`
	MidtermExam *float64 `json:"midterm_exam,omitempty" validate:"omitempty,min=0"`
	FinalExam   *float64 `json:"final_exam,omitempty" validate:"omitempty,min=0"`
	MaxMidterm  float64  `json:"max_midterm,omitempty" validate:"omitempty,min=1"`
	MaxFinal    float64  `json:"max_final,omitempty" validate:"omitempty,min=1"`
}

// BulkSaveExamRequest writes exam scores for many cadets at once.
type BulkSaveExamRequest struct {
	Mode  BulkOperationMode `json:"mode,omitempty"`
	Items []SaveExamRequest `json:"items" validate:"required,min=1,dive"`
}
