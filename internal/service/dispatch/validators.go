package dispatch

import "strings"

func isValidCourierID(id string) bool {
	return strings.TrimSpace(id) != ""
}

func isValidID(id int64) bool {
	return id > 0
}
