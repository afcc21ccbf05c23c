// Package policy decides whether an authenticated actor may perform an
// action on a task. Decisions are pure functions of (actor, action, task):
// no I/O, no hidden state, same inputs always yield the same answer.
//
// List visibility is not a boolean decision; ScopeFor returns the filter the
// tasks repository applies at query time.
package policy

import (
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// Action names a task operation subject to authorization.
type Action string

const (
	ActionList       Action = "list"
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionAssign     Action = "assign"
	ActionTransition Action = "transition"
)

// CanList reports whether the actor may enumerate tasks. Any authenticated
// actor can; what they see is narrowed by ScopeFor.
func CanList(actor *models.User) bool {
	return actor != nil
}

// CanView reports whether the actor may view a task.
func CanView(actor *models.User, task *models.Task) bool {
	return actor != nil
}

// CanCreate reports whether the actor may create tasks.
func CanCreate(actor *models.User) bool {
	return actor != nil
}

// CanUpdate reports whether the actor may change task fields.
// Only the creator can.
func CanUpdate(actor *models.User, task *models.Task) bool {
	return actor != nil && actor.ID == task.CreatorID
}

// CanDelete reports whether the actor may delete the task.
// The creator can; admins can regardless of ownership.
func CanDelete(actor *models.User, task *models.Task) bool {
	return actor != nil && (actor.ID == task.CreatorID || actor.Role.IsAdmin())
}

// CanAssign reports whether the actor may assign tasks to users.
// Derived from the role, independent of the target task.
func CanAssign(actor *models.User, task *models.Task) bool {
	return actor != nil && actor.Role.CanAssignTasks()
}

// CanTransition reports whether the actor may move the task between states.
// The assignee drives an assigned task; the creator drives an unassigned one.
func CanTransition(actor *models.User, task *models.Task) bool {
	if actor == nil {
		return false
	}
	if task.Assigned() {
		return actor.ID == *task.AssigneeID
	}
	return actor.ID == task.CreatorID
}

// Allowed dispatches an action name to its decision function. Unknown
// actions are denied.
func Allowed(actor *models.User, action Action, task *models.Task) bool {
	switch action {
	case ActionList:
		return CanList(actor)
	case ActionView:
		return CanView(actor, task)
	case ActionCreate:
		return CanCreate(actor)
	case ActionUpdate:
		return CanUpdate(actor, task)
	case ActionDelete:
		return CanDelete(actor, task)
	case ActionAssign:
		return CanAssign(actor, task)
	case ActionTransition:
		return CanTransition(actor, task)
	}
	return false
}

// Scope describes the subset of tasks visible to an actor during listing.
// The tasks repository translates it into the query predicate.
type Scope struct {
	// All grants unrestricted visibility (admins).
	All bool
	// UserID restricts the listing to tasks the user created or is
	// assigned to. Ignored when All is set.
	UserID string
}

// ScopeFor returns the listing scope for the actor: admins see every task,
// everyone else sees tasks they created or are assigned to.
func ScopeFor(actor *models.User) Scope {
	if actor.Role.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: actor.ID}
}
