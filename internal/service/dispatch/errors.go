package dispatch

import "errors"

var (
	ErrInvalidOrderID      = errors.New("invalid order id")
	ErrInvalidAssignmentID = errors.New("invalid assignment id")
	ErrInvalidCourierID    = errors.New("invalid courier id")
	ErrInvalidLocation     = errors.New("invalid delivery location")

	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrOrderNotOutForDelivery = errors.New("order is not out for delivery")
	ErrOrderAlreadyDispatched = errors.New("order already has an active assignment")
	ErrNoCandidates           = errors.New("no courier found, try again later")

	ErrAlreadyResolved = errors.New("assignment already resolved")
	ErrCourierBusy     = errors.New("courier is busy with another assignment")
	ErrNotCandidate    = errors.New("courier is not a candidate for this assignment")

	// ErrConcurrentUpdate конфликт транзакций при фан-ауте, операцию можно повторить.
	ErrConcurrentUpdate = errors.New("concurrent assignment update")
)
