package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWeeksLengthInvariant(t *testing.T) {
	cases := []struct {
		name      string
		input     []int
		targetLen int
	}{
		{"empty to ten", nil, 10},
		{"short padded", []int{1, 2, 3}, 10},
		{"exact", []int{1, 2, 3, 4, 5}, 5},
		{"long truncated", []int{1, 2, 3, 4, 5, 6, 7, 8}, 4},
		{"zero target", []int{1, 2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := NormalizeWeeks(tc.input, tc.targetLen, 7)
			assert.Len(t, out, tc.targetLen)
		})
	}
}

func TestNormalizeWeeksPadsAndTruncates(t *testing.T) {
	out := NormalizeWeeks([]int{3, 4}, 4, 10)
	assert.Equal(t, []int{3, 4, 10, 10}, out)

	out = NormalizeWeeks([]int{1, 2, 3, 4, 5}, 3, 0)
	assert.Equal(t, []int{1, 2, 3}, out)

	flags := NormalizeWeeks([]bool{true}, 3, false)
	assert.Equal(t, []bool{true, false, false}, flags)
}

func TestComputeAttendanceFullPresence(t *testing.T) {
	present := make([]bool, 10)
	for i := range present {
		present[i] = true
	}
	result := ComputeAttendance(present, 10)
	assert.Equal(t, 10, result.WeeksPresent)
	assert.Equal(t, 30, result.AttendanceScore)
}

func TestComputeAttendanceHalfPresence(t *testing.T) {
	present := []bool{true, true, true, true, true, false, false, false, false, false}
	result := ComputeAttendance(present, 10)
	assert.Equal(t, 5, result.WeeksPresent)
	assert.Equal(t, 15, result.AttendanceScore)
}

func TestComputeAttendanceShortInputCountsAbsent(t *testing.T) {
	result := ComputeAttendance([]bool{true, true}, 15)
	assert.Equal(t, 2, result.WeeksPresent)
	assert.Equal(t, 4, result.AttendanceScore)
}

func TestComputeAttendanceMonotonic(t *testing.T) {
	prev := -1
	for weeks := 0; weeks <= 15; weeks++ {
		present := make([]bool, 15)
		for i := 0; i < weeks; i++ {
			present[i] = true
		}
		score := ComputeAttendance(present, 15).AttendanceScore
		assert.GreaterOrEqual(t, score, prev)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 30)
		prev = score
	}
}

func TestComputeAttendanceZeroWeeks(t *testing.T) {
	result := ComputeAttendance(nil, 0)
	assert.Equal(t, 0, result.WeeksPresent)
	assert.Equal(t, 0, result.AttendanceScore)
}

func TestComputeAptitudeNoDemerits(t *testing.T) {
	result := ComputeAptitude(nil, make([]int, 10), 10)
	assert.Equal(t, 100, result.TotalMerits)
	assert.Equal(t, 30, result.AptitudeScore)
}

func TestComputeAptitudeTwentyDemerits(t *testing.T) {
	demerits := []int{5, 5, 10, 0, 0, 0, 0, 0, 0, 0}
	result := ComputeAptitude(nil, demerits, 10)
	assert.Equal(t, 80, result.TotalMerits)
	assert.Equal(t, 24, result.AptitudeScore)
}

func TestComputeAptitudeExcessDemeritsClampToZero(t *testing.T) {
	demerits := []int{50, 60, 40}
	result := ComputeAptitude(nil, demerits, 10)
	assert.Equal(t, 0, result.TotalMerits)
	assert.Equal(t, 0, result.AptitudeScore)
}

func TestComputeAptitudeDemeritsNeverIncreaseScore(t *testing.T) {
	base := ComputeAptitude(nil, []int{2, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 10)
	for week := 0; week < 10; week++ {
		demerits := make([]int, 10)
		demerits[0] = 2
		demerits[week] += 3
		bumped := ComputeAptitude(nil, demerits, 10)
		assert.LessOrEqual(t, bumped.AptitudeScore, base.AptitudeScore)
	}
}

func TestComputeAptitudeShortDemeritsPadZero(t *testing.T) {
	result := ComputeAptitude(nil, []int{10}, 15)
	assert.Equal(t, 140, result.TotalMerits)
	assert.Equal(t, 28, result.AptitudeScore)
}

func TestComputeExamFirstTerm(t *testing.T) {
	final := 80.0
	result := ComputeExam(&final, nil, 100, 100, 10)
	assert.Equal(t, 80.0, result.Average)
	assert.Equal(t, 32, result.SubjectProficiency)
}

func TestComputeExamSecondTerm(t *testing.T) {
	final := 80.0
	midterm := 90.0
	result := ComputeExam(&final, &midterm, 100, 100, 15)
	assert.Equal(t, 85.0, result.Average)
	assert.Equal(t, 34, result.SubjectProficiency)
}

func TestComputeExamSecondTermKeepsTwoDecimals(t *testing.T) {
	final := 41.0
	midterm := 44.0
	result := ComputeExam(&final, &midterm, 60, 60, 15)
	assert.InDelta(t, 70.83, result.Average, 0.001)
	assert.Equal(t, 28, result.SubjectProficiency)
}

func TestComputeExamMissingScoresContributeZero(t *testing.T) {
	result := ComputeExam(nil, nil, 100, 100, 15)
	assert.Equal(t, 0.0, result.Average)
	assert.Equal(t, 0, result.SubjectProficiency)

	midterm := 90.0
	result = ComputeExam(nil, &midterm, 100, 100, 15)
	assert.Equal(t, 45.0, result.Average)
	assert.Equal(t, 18, result.SubjectProficiency)
}

func TestComputeExamFlooredMaxScale(t *testing.T) {
	final := 50.0
	result := ComputeExam(&final, nil, 0, 0, 10)
	require.NotZero(t, result.Average)
	assert.LessOrEqual(t, result.SubjectProficiency, 40)
}

func TestComputeExamCustomScale(t *testing.T) {
	final := 45.0
	result := ComputeExam(&final, nil, 50, 100, 10)
	assert.Equal(t, 90.0, result.Average)
	assert.Equal(t, 36, result.SubjectProficiency)
}

func TestComputeFinalGradeAggregation(t *testing.T) {
	result := ComputeFinalGrade(24, 24, 32, 75)
	assert.Equal(t, 80, result.FinalGrade)
	assert.Equal(t, RemarkPassed, result.Remarks)
}

func TestComputeFinalGradeFailing(t *testing.T) {
	result := ComputeFinalGrade(10, 12, 20, 75)
	assert.Equal(t, 42, result.FinalGrade)
	assert.Equal(t, RemarkFailed, result.Remarks)
}

func TestComputeFinalGradeBounds(t *testing.T) {
	result := ComputeFinalGrade(999, 999, 999, 75)
	assert.Equal(t, 100, result.FinalGrade)

	result = ComputeFinalGrade(-5, -5, -5, 75)
	assert.Equal(t, 0, result.FinalGrade)
}

func TestScorersAreIdempotent(t *testing.T) {
	present := []bool{true, false, true, true, false, true, true, true, false, true}
	demerits := []int{0, 3, 0, 1, 0, 0, 2, 0, 0, 0}
	final := 77.0

	first := ComputeAttendance(present, 10)
	assert.Equal(t, first, ComputeAttendance(present, 10))

	apt := ComputeAptitude(nil, demerits, 10)
	assert.Equal(t, apt, ComputeAptitude(nil, demerits, 10))

	exam := ComputeExam(&final, nil, 100, 100, 10)
	assert.Equal(t, exam, ComputeExam(&final, nil, 100, 100, 10))

	grade := ComputeFinalGrade(first.AttendanceScore, apt.AptitudeScore, exam.SubjectProficiency, 75)
	assert.Equal(t, grade, ComputeFinalGrade(first.AttendanceScore, apt.AptitudeScore, exam.SubjectProficiency, 75))
}
