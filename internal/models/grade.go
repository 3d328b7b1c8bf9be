package models

import "time"

// GradeRemark labels a final grade against the passing threshold.
type GradeRemark string

const (
	RemarkPassed GradeRemark = "PASSED"
	RemarkFailed GradeRemark = "FAILED"
)

// GradeSummary is the derived final grade row for one (cadet, semester).
// It is recomputed from the three component records on every save and is
// never authored directly.
type GradeSummary struct {
	ID                 string      `db:"id" json:"id"`
	CadetID            string      `db:"cadet_id" json:"cadet_id"`
	SemesterID         string      `db:"semester_id" json:"semester_id"`
	AttendanceScore    int         `db:"attendance_score" json:"attendance_score"`
	AptitudeScore      int         `db:"aptitude_score" json:"aptitude_score"`
	SubjectProficiency int         `db:"subject_proficiency" json:"subject_proficiency"`
	FinalGrade         int         `db:"final_grade" json:"final_grade"`
	Remarks            GradeRemark `db:"remarks" json:"remarks"`
	ComputedAt         time.Time   `db:"computed_at" json:"computed_at"`
}

// GradeSheetRow represents one cadet's line on a platoon grade sheet.
type GradeSheetRow struct {
	CadetID            string      `db:"cadet_id" json:"cadet_id"`
	StudentNumber      string      `db:"student_number" json:"student_number"`
	CadetName          string      `db:"cadet_name" json:"cadet_name"`
	Platoon            string      `db:"platoon" json:"platoon"`
	AttendanceScore    int         `db:"attendance_score" json:"attendance_score"`
	AptitudeScore      int         `db:"aptitude_score" json:"aptitude_score"`
	SubjectProficiency int         `db:"subject_proficiency" json:"subject_proficiency"`
	FinalGrade         int         `db:"final_grade" json:"final_grade"`
	Remarks            GradeRemark `db:"remarks" json:"remarks"`
}

// GradeSheetFilter scopes grade sheet queries.
type GradeSheetFilter struct {
	SemesterID string
	Platoon    string
	Company    string
}
