package entity

import "time"

// Semester is one of the two academic periods of a year
type Semester string

const (
	Semester1 Semester = "SEMESTRE_1"
	Semester2 Semester = "SEMESTRE_2"
)

// IsValid returns true for the two known semesters
func (s Semester) IsValid() bool {
	return s == Semester1 || s == Semester2
}

// String returns the string representation of the semester
func (s Semester) String() string {
	return string(s)
}

// Period identifies an academic year and semester
type Period struct {
	Year     int      `json:"year"`
	Semester Semester `json:"semester"`
}

// SemesterFor returns the semester containing t: January to June is the first
func SemesterFor(t time.Time) Semester {
	if t.Month() <= time.June {
		return Semester1
	}
	return Semester2
}

// CurrentPeriod returns the academic period containing now
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Semester: SemesterFor(now)}
}
