package entities

import (
	"slices"
	"time"
)

type AssignmentStatusType string

const (
	AssignmentBroadcasted AssignmentStatusType = "broadcasted"
	AssignmentAssigned    AssignmentStatusType = "assigned"
	AssignmentCompleted   AssignmentStatusType = "completed"
)

func (s AssignmentStatusType) String() string {
	return string(s)
}

type Assignment struct {
	ID         int64
	OrderID    int64
	Candidates []string
	Status     AssignmentStatusType
	AcceptedBy *string
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Assignment) HasCandidate(courierID string) bool {
	return slices.Contains(a.Candidates, courierID)
}

func (a *Assignment) IsOpen() bool {
	return a.Status == AssignmentBroadcasted
}

type DispatchResult struct {
	Assignment *Assignment
	Candidates []CourierSummary
}

type AcceptResult struct {
	Assignment *Assignment
	Order      *Order
	// Revoked открытые рассылки, из которых победитель был исключён.
	Revoked []int64
}
