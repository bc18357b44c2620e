package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ListingURL builds the instructor listing URL for a school on the rating
// service, e.g. https://www.ratemyprofessors.com/search/professors/1095?q=
func ListingURL(baseURL string, schoolID int64) string {
	return fmt.Sprintf("%s/search/professors/%d?q=", strings.TrimRight(baseURL, "/"), schoolID)
}

// VisitedKey creates a consistent Redis key suffix for a school id.
func VisitedKey(schoolID int64) string {
	return strconv.FormatInt(schoolID, 10)
}

// SnapshotFileName maps a school display name to a safe file name.
// Path separators and NUL are replaced, everything else is kept so the
// name stays recognizable.
func SnapshotFileName(schoolName string) string {
	name := strings.TrimSpace(schoolName)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name + ".parquet"
}
