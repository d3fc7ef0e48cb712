package courier

import (
	"math"
	"strings"

	"dispatch/internal/entities"
)

func isValidCourierID(id string) bool {
	return strings.TrimSpace(id) != ""
}

func isValidPoint(p entities.Point) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Valid()
}
