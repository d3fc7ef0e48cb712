package completion

import "errors"

var (
	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrInvalidCode      = errors.New("invalid delivery code")
	ErrCodeNotAllowed   = errors.New("delivery code can be issued only for an assigned order out for delivery")
	ErrCodeExpired      = errors.New("delivery code expired")
	ErrTooManyAttempts  = errors.New("too many delivery code attempts")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrMailUnavailable  = errors.New("delivery code email could not be sent")
)
