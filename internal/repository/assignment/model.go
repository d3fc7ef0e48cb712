package assignment

import "time"

type AssignmentDB struct {
	ID         int64
	OrderID    int64
	Candidates []string
	Status     string
	AcceptedBy *string
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
