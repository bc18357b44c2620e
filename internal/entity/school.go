package entity

// School mirrors the `schools` table. IDs are assigned by the rating service.
type School struct {
	ID   int64  `json:"school_id"`
	Name string `json:"school_name"`
}

// Catalog maps school id to canonical display name.
type Catalog map[int64]string

// Schools returns the catalog entries as a slice in no particular order.
func (c Catalog) Schools() []School {
	schools := make([]School, 0, len(c))
	for id, name := range c {
		schools = append(schools, School{ID: id, Name: name})
	}
	return schools
}
