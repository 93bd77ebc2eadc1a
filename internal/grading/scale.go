// Package grading derives letter grades, grade points, and pass/fail from
// raw assessment inputs. The derivation is a pure recompute pass run before
// every write; it never touches storage.
package grading

// Band is one row of the grade table: the minimum total that earns the
// grade, plus the grade points it carries.
type Band struct {
	Min    float64
	Grade  string
	Points float64
}

// Scale is the ordered grade table, highest threshold first. The first band
// whose Min the total meets wins; totals below every band are an F.
type Scale struct {
	Bands []Band
}

// DefaultScale is the department's grading scheme.
func DefaultScale() Scale {
	return Scale{
		Bands: []Band{
			{Min: 90, Grade: "S", Points: 10},
			{Min: 80, Grade: "A", Points: 9},
			{Min: 70, Grade: "B", Points: 8},
			{Min: 60, Grade: "C", Points: 7},
			{Min: 50, Grade: "D", Points: 6},
			{Min: 40, Grade: "E", Points: 5},
		},
	}
}

// GradeFor returns the letter grade and grade points for a total mark.
func (s Scale) GradeFor(total float64) (string, float64) {
	for _, b := range s.Bands {
		if total >= b.Min {
			return b.Grade, b.Points
		}
	}
	return "F", 0
}

// PointsFor returns the grade points for a letter grade, 0 for F, absent,
// or anything unknown.
func (s Scale) PointsFor(grade string) float64 {
	for _, b := range s.Bands {
		if b.Grade == grade {
			return b.Points
		}
	}
	return 0
}
