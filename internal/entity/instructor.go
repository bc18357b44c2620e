package entity

// Department mirrors the `departments` table.
type Department struct {
	ID   int64
	Name string
}

// Instructor mirrors the `instructors` table. DepartmentID is nil when the
// card carried no department.
type Instructor struct {
	ID            int64
	Name          string
	DepartmentID  *int64
	SchoolID      int64
	Quality       *float64
	TotalRatings  int
	RetakePercent *float64
	Difficulty    *float64
}
