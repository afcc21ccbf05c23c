package models

import (
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

// State is a task lifecycle state. Completed and cancelled are terminal.
type State string

const (
	StateDraft      State = "draft"
	StateAssigned   State = "assigned"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// States lists every valid lifecycle state.
func States() []State {
	return []State{StateDraft, StateAssigned, StateInProgress, StateCompleted, StateCancelled}
}

// validTransitions is the single source of truth for the state machine.
// A state missing a target here cannot reach it, full stop.
var validTransitions = map[State][]State{
	StateDraft:      {StateAssigned, StateCancelled},
	StateAssigned:   {StateInProgress, StateCancelled},
	StateInProgress: {StateCompleted, StateCancelled},
	StateCompleted:  {},
	StateCancelled:  {},
}

func (s State) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool {
	return len(validTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether target is reachable from s in one step.
// Pure query; applying the transition is the caller's job.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

const (
	TitleMinLen = 3
	TitleMaxLen = 200
)

type Task struct {
	ID          string
	Title       string
	Description string
	State       State
	CreatorID   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assigned reports whether the task has an assignee.
func (t *Task) Assigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// CanBeAssigned reports whether an assignment is permitted from the current
// state (draft or assigned; reassignment is allowed before work starts).
func (t *Task) CanBeAssigned() bool {
	return t.State == StateDraft || t.State == StateAssigned
}

// Validate checks task invariants and returns every violation at once.
// The state/assignee pairing is rejected in both directions: assigned
// requires an assignee, and a draft cannot carry one.
func (t *Task) Validate() error {
	ve := &common.ValidationError{}
	// the bounds count characters, not bytes
	if t.Title == "" {
		ve.Add("title can't be blank")
	} else if utf8.RuneCountInString(t.Title) < TitleMinLen {
		ve.Add("title is too short (minimum is 3 characters)")
	} else if utf8.RuneCountInString(t.Title) > TitleMaxLen {
		ve.Add("title is too long (maximum is 200 characters)")
	}
	if !t.State.IsValid() {
		ve.Add(string(t.State) + " is not a valid state")
	}
	if t.CreatorID == "" {
		ve.Add("creator can't be blank")
	}
	if t.State == StateAssigned && !t.Assigned() {
		ve.Add("assignee must be present when task is assigned")
	}
	if t.State == StateDraft && t.Assigned() {
		ve.Add("assignee must be blank while task is a draft")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}
