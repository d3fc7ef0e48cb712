package assignment

import "dispatch/internal/entities"

func ToDomain(a *AssignmentDB) *entities.Assignment {
	if a == nil {
		return nil
	}

	candidates := a.Candidates
	if candidates == nil {
		candidates = []string{}
	}

	return &entities.Assignment{
		ID:         a.ID,
		OrderID:    a.OrderID,
		Candidates: candidates,
		Status:     entities.AssignmentStatusType(a.Status),
		AcceptedBy: a.AcceptedBy,
		AcceptedAt: a.AcceptedAt,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func ToDomainList(assignments []AssignmentDB) []entities.Assignment {
	res := make([]entities.Assignment, 0, len(assignments))
	for i := range assignments {
		res = append(res, *ToDomain(&assignments[i]))
	}
	return res
}
