package entity

// DepartmentAverage is one row of the per-department aggregate for a school.
type DepartmentAverage struct {
	DepartmentName   string   `json:"department_name"`
	InstructorCount  int64    `json:"instructor_count"`
	AvgQuality       *float64 `json:"avg_quality"`
	AvgDifficulty    *float64 `json:"avg_difficulty"`
	AvgRetakePercent *float64 `json:"avg_retake_percent"`
}

// SchoolAverage is one row of a cross-school distribution for a department.
type SchoolAverage struct {
	SchoolID        int64    `json:"school_id"`
	SchoolName      string   `json:"school_name"`
	InstructorCount int64    `json:"instructor_count"`
	AvgQuality      *float64 `json:"avg_quality"`
}

// InstructorMatch is one autocomplete suggestion.
type InstructorMatch struct {
	InstructorID   int64  `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	SchoolName     string `json:"school_name"`
}
