package courier

import "errors"

var (
	ErrInvalidCourierID   = errors.New("invalid courier id")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrTooManyUpdates     = errors.New("location updates are too frequent")
)
