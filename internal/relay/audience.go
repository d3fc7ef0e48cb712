package relay

import (
	"slices"

	"dispatch/internal/entities"
)

// Audience адресаты сообщения: конкретные identity, роли или все подключённые.
type Audience struct {
	Identities []string                `json:"identities,omitempty"`
	Roles      []entities.UserRoleType `json:"roles,omitempty"`
	Everyone   bool                    `json:"everyone,omitempty"`
}

func To(identities ...string) Audience {
	return Audience{Identities: identities}
}

func ToRole(roles ...entities.UserRoleType) Audience {
	return Audience{Roles: roles}
}

func Everyone() Audience {
	return Audience{Everyone: true}
}

// And объединение адресатов.
func (a Audience) And(other Audience) Audience {
	return Audience{
		Identities: append(slices.Clone(a.Identities), other.Identities...),
		Roles:      append(slices.Clone(a.Roles), other.Roles...),
		Everyone:   a.Everyone || other.Everyone,
	}
}

func (a Audience) Empty() bool {
	return !a.Everyone && len(a.Identities) == 0 && len(a.Roles) == 0
}

func (a Audience) matches(identity string, role entities.UserRoleType) bool {
	if a.Everyone {
		return true
	}
	return slices.Contains(a.Identities, identity) || slices.Contains(a.Roles, role)
}
