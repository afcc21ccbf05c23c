package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

// Event types recorded by the services. The log is append-only; consumption
// (setting processed_at) belongs to downstream processors, not this server.
const (
	EventUserCreated   = "user.created"
	EventTaskCreated   = "task.created"
	EventTaskAssigned  = "task.assigned"
	EventTaskCompleted = "task.completed"
	EventTaskCancelled = "task.cancelled"
)

// eventTypeRe enforces the "<namespace>.<verb>" shape: lowercase words
// separated by a single dot.
var eventTypeRe = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

type Event struct {
	ID          string
	EventType   string
	Payload     map[string]any
	TaskID      *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Namespace returns the substring before the first dot of the event type.
func (e *Event) Namespace() string {
	return strings.SplitN(e.EventType, ".", 2)[0]
}

// Processed reports whether a downstream consumer has handled the event.
func (e *Event) Processed() bool {
	return e.ProcessedAt != nil
}

// Validate checks event invariants and returns every violation at once.
func (e *Event) Validate() error {
	ve := &common.ValidationError{}
	if e.EventType == "" {
		ve.Add("event_type can't be blank")
	} else if !eventTypeRe.MatchString(e.EventType) {
		ve.Add("event_type must match <namespace>.<verb>")
	}
	if e.Payload == nil {
		ve.Add("payload can't be blank")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}
