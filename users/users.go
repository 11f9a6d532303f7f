package users

import (
	"slices"
	"strings"
	"time"
)

// Permission is a single capability granted through a role
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Role is a named set of permissions. A profile's roles are ordered as the backend returns them.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// Profile is the authenticated user as returned by the login, refresh and /me endpoints.
type Profile struct {
	ID            string     `json:"id"`                    // Unique identifier for the user
	Email         string     `json:"email"`                 // User's email address
	FirstName     string     `json:"firstName"`             // First name of the user
	LastName      string     `json:"lastName"`              // Last name of the user
	PhoneNumber   string     `json:"phoneNumber,omitempty"` // Optional contact number
	Roles         []Role     `json:"roles"`                 // Roles in the order granted
	EmailVerified bool       `json:"isEmailVerified"`       // Has the user verified their email address
	CreatedAt     time.Time  `json:"createdAt"`             // When the account was created
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`   // Last profile change, if any
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasRole returns true if the profile holds a role with the given name
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.ContainsFunc(p.Roles, func(r Role) bool {
		return r.Name == role
	})
}

// HasAnyRole returns true if the profile holds at least one of the named roles
func (p *Profile) HasAnyRole(roles ...string) bool {
	if p == nil {
		return false
	}
	return slices.ContainsFunc(p.Roles, func(r Role) bool {
		return slices.Contains(roles, r.Name)
	})
}

// HasPermission returns true if any of the profile's roles grants the named permission
func (p *Profile) HasPermission(permission string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		for _, perm := range r.Permissions {
			if perm.Name == permission {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate the cached profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Roles = make([]Role, len(p.Roles))
	for i, r := range p.Roles {
		c.Roles[i] = Role{ID: r.ID, Name: r.Name, Permissions: slices.Clone(r.Permissions)}
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
