// Package models defines the server-side domain entities: users with roles,
// tasks with a lifecycle state machine, and recorded domain events.
package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

// Role classifies a user. Every user has exactly one role; the three values
// are flat (no ordering between them), capabilities are derived explicitly.
type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role value.
func Roles() []Role {
	return []Role{RoleMember, RoleManager, RoleAdmin}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool   { return r == RoleAdmin }
func (r Role) IsManager() bool { return r == RoleManager }
func (r Role) IsMember() bool  { return r == RoleMember }

// CanAssignTasks reports whether the role may assign tasks to users.
func (r Role) CanAssignTasks() bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases an email address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks user invariants and returns every violation at once.
// A missing or unknown role is a validation failure, never a silent default.
func (u *User) Validate() error {
	ve := &common.ValidationError{}
	if u.Email == "" {
		ve.Add("email can't be blank")
	} else if !emailRe.MatchString(u.Email) {
		ve.Add("email must be a valid email address")
	}
	if u.PasswordHash == "" {
		ve.Add("password can't be blank")
	}
	if !u.Role.IsValid() {
		ve.Add(string(u.Role) + " is not a valid role")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}
