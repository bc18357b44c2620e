package entity

// InstructorRecord is one instructor card as parsed from a listing page.
// Pointer fields are absent when the card lacked the markup for them.
type InstructorRecord struct {
	Name          *string
	Department    *string
	School        *string
	Quality       *float64
	TotalRatings  int
	RetakePercent *float64 // 0-100
	Difficulty    *float64
}

// StringValue dereferences an optional string, returning "" when absent.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
