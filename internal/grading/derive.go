package grading

import (
	"math"
	"sort"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Derive recomputes every derived field on an assessment record from its
// raw inputs. It is idempotent: re-running on unchanged inputs yields
// identical outputs. The record is only valid for aggregation after this
// pass has run.
//
// Rules:
//   - bestOfTwoInternal needs at least two of the three internals; a single
//     missing score is treated as 0 for ranking, fewer than two present
//     leaves the field unset.
//   - attendancePercentage is round(attended/total*100), 0 when no classes.
//   - totalMarks exists only once a final exam score does:
//     round(final*0.5 + bestOfTwo + assignment + lab). Totals above 100 are
//     possible with inconsistent inputs and are surfaced, not clamped.
//   - A recorded final-exam absence grades AB with no total; AB never
//     passes and never earns credits.
//   - A final exam score without enough internals is a validation error,
//     not a silent default.
func Derive(rec *shared.AssessmentRecord, scale Scale) error {
	internals := presentInternals(rec)

	if len(internals) >= 2 {
		best := bestOfTwo(rec)
		rec.BestOfTwoInternal = &best
	} else {
		rec.BestOfTwoInternal = nil
	}

	if rec.TotalClasses > 0 {
		rec.AttendancePercentage = math.Round(float64(rec.ClassesAttended) / float64(rec.TotalClasses) * 100)
	} else {
		rec.AttendancePercentage = 0
	}

	if rec.FinalAbsent {
		rec.TotalMarks = nil
		rec.Grade = shared.GradeAbsent
		rec.GradePoints = 0
		rec.IsPassed = false
		return nil
	}

	if rec.FinalExam == nil {
		// No final yet: no total, no grade.
		rec.TotalMarks = nil
		rec.Grade = ""
		rec.GradePoints = 0
		rec.IsPassed = false
		return nil
	}

	if rec.BestOfTwoInternal == nil {
		return shared.Errorf(shared.CodeValidation,
			"cannot grade %s/%s: final exam recorded but only %d of 3 internal scores present (need 2)",
			rec.StudentID, rec.SubjectCode, len(internals))
	}

	total := math.Round(*rec.FinalExam*0.5 + *rec.BestOfTwoInternal + rec.AssignmentTotal + rec.LabTotal)
	rec.TotalMarks = &total
	rec.Grade, rec.GradePoints = scale.GradeFor(total)
	rec.IsPassed = rec.Grade != shared.GradeF
	return nil
}

// presentInternals returns the internal scores that have been recorded.
func presentInternals(rec *shared.AssessmentRecord) []float64 {
	var out []float64
	for _, p := range []*float64{rec.Internal1, rec.Internal2, rec.Internal3} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// bestOfTwo averages the two highest internal scores, treating a missing
// third score as 0, rounded to 2 decimals.
func bestOfTwo(rec *shared.AssessmentRecord) float64 {
	scores := make([]float64, 0, 3)
	for _, p := range []*float64{rec.Internal1, rec.Internal2, rec.Internal3} {
		if p != nil {
			scores = append(scores, *p)
		} else {
			scores = append(scores, 0)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	return round2((scores[0] + scores[1]) / 2)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
