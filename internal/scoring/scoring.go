// Package scoring implements the grade computation rules for the ROTC
// program: weekly attendance, aptitude (merits and demerits) and exam
// proficiency each contribute a bounded share of the 100-point final grade.
// All functions are pure and total once their inputs pass validation.
package scoring

import "math"

// Component weights of the final grade.
const (
	AttendanceWeight  = 30
	AptitudeWeight    = 30
	ProficiencyWeight = 40
)

// MeritsPerWeek is the maximum aptitude credit a cadet earns in one week.
const MeritsPerWeek = 10

// SecondTermWeekCount selects the midterm-aware exam formula.
const SecondTermWeekCount = 15

// NormalizeWeeks fits a per-week value slice to the semester's week count:
// longer inputs are truncated, shorter inputs are right-padded with pad.
// The result always has exactly targetLen elements.
func NormalizeWeeks[T any](values []T, targetLen int, pad T) []T {
	if targetLen <= 0 {
		return []T{}
	}
	out := make([]T, targetLen)
	for i := 0; i < targetLen; i++ {
		if i < len(values) {
			out[i] = values[i]
		} else {
			out[i] = pad
		}
	}
	return out
}

// AttendanceResult carries the derived attendance fields.
type AttendanceResult struct {
	WeeksPresent    int
	AttendanceScore int
}

// ComputeAttendance converts weekly presence flags into a 0-30 contribution.
// Missing weeks count as absences.
func ComputeAttendance(present []bool, weekCount int) AttendanceResult {
	if weekCount <= 0 {
		return AttendanceResult{}
	}
	weeks := NormalizeWeeks(present, weekCount, false)
	presentCount := 0
	for _, p := range weeks {
		if p {
			presentCount++
		}
	}
	score := int(math.Round(float64(presentCount) / float64(weekCount) * AttendanceWeight))
	return AttendanceResult{
		WeeksPresent:    presentCount,
		AttendanceScore: clampInt(score, 0, AttendanceWeight),
	}
}

// AptitudeResult carries the derived aptitude fields.
type AptitudeResult struct {
	TotalMerits   int
	AptitudeScore int
}

// ComputeAptitude converts weekly merit and demerit values into a 0-30
// contribution. Total merits start from the semester maximum (weekCount x 10)
// and lose one point per demerit, never going below zero; the recorded merit
// entries are informational under this policy. Weeks without a demerit entry
// default to zero.
func ComputeAptitude(merits, demerits []int, weekCount int) AptitudeResult {
	if weekCount <= 0 {
		return AptitudeResult{}
	}
	weekDemerits := NormalizeWeeks(demerits, weekCount, 0)

	totalDemerits := 0
	for _, d := range weekDemerits {
		if d > 0 {
			totalDemerits += d
		}
	}

	maxMerits := weekCount * MeritsPerWeek
	totalMerits := maxMerits - totalDemerits
	if totalMerits < 0 {
		totalMerits = 0
	}

	score := math.Round(math.Min(AptitudeWeight, float64(totalMerits)/float64(maxMerits)*AptitudeWeight))
	return AptitudeResult{
		TotalMerits:   totalMerits,
		AptitudeScore: clampInt(int(score), 0, AptitudeWeight),
	}
}

// ExamResult carries the derived exam fields.
type ExamResult struct {
	Average            float64
	SubjectProficiency int
}

// ComputeExam converts raw exam scores into the exam average and the 0-40
// subject proficiency contribution. First-term (10-week) semesters grade on
// the final exam alone with a whole-number average; second-term (15-week)
// semesters average the midterm and final terms to two decimals. Absent
// scores contribute zero and max scales below 1 are floored to 1.
func ComputeExam(finalExam, midtermExam *float64, maxFinal, maxMidterm float64, weekCount int) ExamResult {
	if maxFinal < 1 {
		maxFinal = 1
	}
	if maxMidterm < 1 {
		maxMidterm = 1
	}

	finalNorm := scoreOrZero(finalExam) / maxFinal

	var average float64
	if weekCount == SecondTermWeekCount {
		midNorm := scoreOrZero(midtermExam) / maxMidterm
		average = round2((finalNorm + midNorm) / 2 * 100)
	} else {
		average = math.Round(finalNorm * 100)
	}

	proficiency := int(math.Round(average * float64(ProficiencyWeight) / 100))
	return ExamResult{
		Average:            average,
		SubjectProficiency: clampInt(proficiency, 0, ProficiencyWeight),
	}
}

// FinalGradeResult carries the aggregated grade and its remark.
type FinalGradeResult struct {
	FinalGrade int
	Remarks    string
}

// Remark labels returned by ComputeFinalGrade.
const (
	RemarkPassed = "PASSED"
	RemarkFailed = "FAILED"
)

// ComputeFinalGrade sums the three component contributions into the final
// 0-100 grade and derives the remark from the passing threshold. Components
// are clamped to their documented ranges before summing.
func ComputeFinalGrade(attendanceScore, aptitudeScore, subjectProficiency, passingGrade int) FinalGradeResult {
	total := clampInt(attendanceScore, 0, AttendanceWeight) +
		clampInt(aptitudeScore, 0, AptitudeWeight) +
		clampInt(subjectProficiency, 0, ProficiencyWeight)

	remark := RemarkFailed
	if total >= passingGrade {
		remark = RemarkPassed
	}
	return FinalGradeResult{FinalGrade: total, Remarks: remark}
}

func scoreOrZero(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
