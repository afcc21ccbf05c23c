// This file implements TaskService: task CRUD, assignment, and lifecycle
// transitions. Every operation takes the authenticated actor, consults the
// policy package before touching persistence, and records domain events in
// the same transaction as the write.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/policy"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TaskService provides task operations on behalf of an authenticated actor.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewTaskService constructs a TaskService using the shared repositories.
func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

// CreateTaskParams carries the caller-supplied attributes for a new task.
// State defaults to draft when empty.
type CreateTaskParams struct {
	Title       string
	Description string
	State       models.State
	AssigneeID  *string
}

// UpdateTaskParams carries the mutable task fields. Nil means "leave as is".
type UpdateTaskParams struct {
	Title       *string
	Description *string
}

func forbidden(action policy.Action) error {
	return fmt.Errorf("task policy denies %s: %w", action, common.ErrorForbidden)
}

// List returns the tasks visible to the actor: everything for admins,
// created-or-assigned for everyone else.
func (s *TaskService) List(ctx context.Context, actor *models.User) ([]*models.Task, error) {
	if !policy.CanList(actor) {
		return nil, forbidden(policy.ActionList)
	}
	return s.repomanager.Tasks(s.db).List(ctx, policy.ScopeFor(actor))
}

// Get returns a single task by id.
func (s *TaskService) Get(ctx context.Context, actor *models.User, id string) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, task) {
		return nil, forbidden(policy.ActionView)
	}
	return task, nil
}

// Create validates and persists a new task created by the actor, recording
// task.created in the same transaction.
func (s *TaskService) Create(ctx context.Context, actor *models.User, params CreateTaskParams) (*models.Task, error) {
	if !policy.CanCreate(actor) {
		return nil, forbidden(policy.ActionCreate)
	}

	state := params.State
	if state == "" {
		state = models.StateDraft
	}
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       params.Title,
		Description: params.Description,
		State:       state,
		CreatorID:   actor.ID,
		AssigneeID:  params.AssigneeID,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if task.Assigned() {
		if err := s.requireUser(ctx, *task.AssigneeID); err != nil {
			return nil, err
		}
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Tasks(tx).Create(ctx, task); err != nil {
			return err
		}
		return s.recordEvent(ctx, tx, models.EventTaskCreated, task.ID, map[string]any{
			"task_id":    task.ID,
			"creator_id": actor.ID,
		})
	}); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// Update rewrites the task's mutable fields. Only the creator may update.
func (s *TaskService) Update(ctx context.Context, actor *models.User, id string, params UpdateTaskParams) (*models.Task, error) {
	repo := s.repomanager.Tasks(s.db)
	task, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdate(actor, task) {
		return nil, forbidden(policy.ActionUpdate)
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task. Creator or admin only; events cascade away with
// the row.
func (s *TaskService) Delete(ctx context.Context, actor *models.User, id string) error {
	repo := s.repomanager.Tasks(s.db)
	task, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDelete(actor, task) {
		return forbidden(policy.ActionDelete)
	}
	return repo.Delete(ctx, id)
}

// Assign puts the task into the assigned state with the given assignee.
// Managers and admins only; the task must still be assignable. The state and
// the assignee change in one conditional write, so a concurrent transition
// surfaces as common.ErrorConflict rather than a half-applied assignment.
func (s *TaskService) Assign(ctx context.Context, actor *models.User, id, assigneeID string) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAssign(actor, task) {
		return nil, forbidden(policy.ActionAssign)
	}

	ve := &common.ValidationError{}
	if !task.CanBeAssigned() {
		ve.Add(fmt.Sprintf("task cannot be assigned while %s", task.State))
	}
	if assigneeID == "" {
		ve.Add("assignee must be present when task is assigned")
	}
	if ve.HasErrors() {
		return nil, ve
	}
	if err := s.requireUser(ctx, assigneeID); err != nil {
		return nil, err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tasks(tx).UpdateState(ctx, id, task.State, models.StateAssigned, &assigneeID); err != nil {
			return err
		}
		return s.recordEvent(ctx, tx, models.EventTaskAssigned, task.ID, map[string]any{
			"task_id":     task.ID,
			"assignee_id": assigneeID,
		})
	}); err != nil {
		return nil, err
	}

	task.State = models.StateAssigned
	task.AssigneeID = &assigneeID
	return task, nil
}

// Transition moves the task to target along the allowed-transition table.
// The assignee drives an assigned task, the creator an unassigned one. The
// write is conditional on the state read above; losing the race yields
// common.ErrorConflict and nothing is applied.
func (s *TaskService) Transition(ctx context.Context, actor *models.User, id string, target models.State) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanTransition(actor, task) {
		return nil, forbidden(policy.ActionTransition)
	}

	ve := &common.ValidationError{}
	if !target.IsValid() {
		ve.Add(fmt.Sprintf("%s is not a valid state", target))
	} else if !task.State.CanTransitionTo(target) {
		ve.Add(fmt.Sprintf("cannot transition from %s to %s", task.State, target))
	}
	if target == models.StateAssigned && !task.Assigned() {
		ve.Add("assignee must be present when task is assigned")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tasks(tx).UpdateState(ctx, id, task.State, target, task.AssigneeID); err != nil {
			return err
		}
		switch target {
		case models.StateCompleted:
			return s.recordEvent(ctx, tx, models.EventTaskCompleted, task.ID, map[string]any{
				"task_id":  task.ID,
				"actor_id": actor.ID,
			})
		case models.StateCancelled:
			return s.recordEvent(ctx, tx, models.EventTaskCancelled, task.ID, map[string]any{
				"task_id":  task.ID,
				"actor_id": actor.ID,
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	task.State = target
	return task, nil
}

// requireUser resolves a referenced user id, mapping absence to a
// validation failure rather than a bare not-found.
func (s *TaskService) requireUser(ctx context.Context, id string) error {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			ve := &common.ValidationError{}
			ve.Add("assignee must be an existing user")
			return ve
		}
		return common.ErrorInternal
	}
	return nil
}

func (s *TaskService) recordEvent(ctx context.Context, tx dbx.DBTX, eventType, taskID string, payload map[string]any) error {
	event := &models.Event{
		ID:        uuid.NewString(),
		EventType: eventType,
		Payload:   payload,
		TaskID:    &taskID,
	}
	_, err := s.repomanager.Events(tx).Create(ctx, event)
	return err
}
