package models

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

func TestState_CanTransitionTo_FullGrid(t *testing.T) {
	t.Parallel()

	allowed := map[State]map[State]bool{
		StateDraft:      {StateAssigned: true, StateCancelled: true},
		StateAssigned:   {StateInProgress: true, StateCancelled: true},
		StateInProgress: {StateCompleted: true, StateCancelled: true},
		StateCompleted:  {},
		StateCancelled:  {},
	}

	// Every from×to combination, including self-transitions.
	for _, from := range States() {
		for _, to := range States() {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestState_CanTransitionTo_UnknownStates(t *testing.T) {
	t.Parallel()

	if State("bogus").CanTransitionTo(StateDraft) {
		t.Fatalf("unknown source state must not transition anywhere")
	}
	if StateDraft.CanTransitionTo(State("bogus")) {
		t.Fatalf("unknown target state must not be reachable")
	}
}

func TestState_IsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  bool
	}{
		{StateDraft, false},
		{StateAssigned, false},
		{StateInProgress, false},
		{StateCompleted, true},
		{StateCancelled, true},
		{State("bogus"), false},
	}
	for _, tc := range tests {
		if got := tc.state.IsTerminal(); got != tc.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestTask_CanBeAssigned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  bool
	}{
		{StateDraft, true},
		{StateAssigned, true},
		{StateInProgress, false},
		{StateCompleted, false},
		{StateCancelled, false},
	}
	for _, tc := range tests {
		task := &Task{State: tc.state}
		if got := task.CanBeAssigned(); got != tc.want {
			t.Errorf("CanBeAssigned in %s = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestTask_Validate_Success(t *testing.T) {
	t.Parallel()

	assignee := "u-2"
	tests := []struct {
		name string
		task Task
	}{
		{"draft without assignee", Task{Title: "Write docs", State: StateDraft, CreatorID: "u-1"}},
		{"assigned with assignee", Task{Title: "Write docs", State: StateAssigned, CreatorID: "u-1", AssigneeID: &assignee}},
		{"in_progress keeps assignee", Task{Title: "Write docs", State: StateInProgress, CreatorID: "u-1", AssigneeID: &assignee}},
		{"title at minimum length", Task{Title: "abc", State: StateDraft, CreatorID: "u-1"}},
		{"title at maximum length", Task{Title: strings.Repeat("x", TitleMaxLen), State: StateDraft, CreatorID: "u-1"}},
		{"multibyte title counted in characters", Task{Title: strings.Repeat("é", 150), State: StateDraft, CreatorID: "u-1"}},
	}
	for _, tc := range tests {
		if err := tc.task.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestTask_Validate_Violations(t *testing.T) {
	t.Parallel()

	assignee := "u-2"
	tests := []struct {
		name    string
		task    Task
		wantMsg string
	}{
		{"blank title", Task{State: StateDraft, CreatorID: "u-1"}, "title can't be blank"},
		{"short title", Task{Title: "ab", State: StateDraft, CreatorID: "u-1"}, "too short"},
		{"short multibyte title", Task{Title: "éé", State: StateDraft, CreatorID: "u-1"}, "too short"},
		{"long title", Task{Title: strings.Repeat("x", TitleMaxLen+1), State: StateDraft, CreatorID: "u-1"}, "too long"},
		{"invalid state", Task{Title: "Write docs", State: "archived", CreatorID: "u-1"}, "not a valid state"},
		{"missing creator", Task{Title: "Write docs", State: StateDraft}, "creator can't be blank"},
		{"assigned without assignee", Task{Title: "Write docs", State: StateAssigned, CreatorID: "u-1"}, "assignee must be present"},
		{"draft with assignee", Task{Title: "Write docs", State: StateDraft, CreatorID: "u-1", AssigneeID: &assignee}, "assignee must be blank"},
	}
	for _, tc := range tests {
		err := tc.task.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		ve, ok := common.AsValidationError(err)
		if !ok {
			t.Errorf("%s: expected *common.ValidationError, got %T", tc.name, err)
			continue
		}
		if !strings.Contains(strings.Join(ve.Messages, "; "), tc.wantMsg) {
			t.Errorf("%s: messages %v do not mention %q", tc.name, ve.Messages, tc.wantMsg)
		}
	}
}

func TestTask_Validate_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	task := Task{State: StateAssigned}
	err := task.Validate()
	ve, ok := common.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *common.ValidationError, got %v", err)
	}
	// blank title, missing creator, assigned without assignee
	if len(ve.Messages) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(ve.Messages), ve.Messages)
	}
}
