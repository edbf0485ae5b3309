package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a member's permission tier within a group.
type Role string

const (
	// RoleAdmin can change the group itself, its roster and its invites.
	RoleAdmin Role = "admin"

	// RoleEditor can create and change chores, logs and reminders.
	RoleEditor Role = "editor"

	// RoleViewer can only read.
	RoleViewer Role = "viewer"
)

// ParseRole converts user input into a Role. "member" is accepted as an alias
// for editor.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "editor", "member":
		return RoleEditor, nil
	case "viewer":
		return RoleViewer, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may create or change chores and logs.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Membership is one entry of a group's roster.
type Membership struct {
	// UserID is the signed-in user holding this membership. Unique within a group.
	UserID uuid.UUID

	// Role is the user's permission tier in the group.
	Role Role

	// JoinedAt is when the user was added to the group.
	JoinedAt time.Time
}

// Group is a collaborative space where chores and logs are shared.
type Group struct {
	// ID is the unique identifier for the group.
	ID uuid.UUID

	// Name is the display name of the group (e.g., "Home", "Studio Flat").
	// Never empty after trimming.
	Name string

	// Icon is an optional emoji or asset name shown next to the name.
	Icon *string

	// Members is the ordered roster. While non-empty it holds at least one admin.
	Members []Membership

	CreatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedAt time.Time
	UpdatedBy uuid.UUID
}

// RoleOf returns the role held by userID, if any.
func (g *Group) RoleOf(userID uuid.UUID) (Role, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// HasMember reports whether userID is on the roster.
func (g *Group) HasMember(userID uuid.UUID) bool {
	_, ok := g.RoleOf(userID)
	return ok
}

// AdminCount returns the number of admins on the roster.
func (g *Group) AdminCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}

// Clone returns a copy that does not share the roster slice.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]Membership(nil), g.Members...)
	if g.Icon != nil {
		icon := *g.Icon
		c.Icon = &icon
	}
	return &c
}
