package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/policy"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// newTxDB returns a mocked *sql.DB used only to drive dbx.WithTx; the fake
// repositories below never touch it.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byID      map[string]*models.User
	byEmail   map[string]*models.User
	created   []*models.User
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, user)
	f.add(user)
	return user, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

type updateStateCall struct {
	id         string
	expected   models.State
	next       models.State
	assigneeID *string
}

type fakeTasksRepo struct {
	byID             map[string]*models.Task
	listResult       []*models.Task
	lastScope        policy.Scope
	created          []*models.Task
	updated          []*models.Task
	deleted          []string
	updateStateCalls []updateStateCall
	updateStateErr   error
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{byID: map[string]*models.Task{}}
}

func (f *fakeTasksRepo) add(task *models.Task) {
	f.byID[task.ID] = task
}

func (f *fakeTasksRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	f.created = append(f.created, task)
	f.add(task)
	return task, nil
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return task, nil
}

func (f *fakeTasksRepo) List(ctx context.Context, scope policy.Scope) ([]*models.Task, error) {
	f.lastScope = scope
	return f.listResult, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, task *models.Task) error {
	f.updated = append(f.updated, task)
	f.byID[task.ID] = task
	return nil
}

func (f *fakeTasksRepo) UpdateState(ctx context.Context, id string, expected, next models.State, assigneeID *string) error {
	f.updateStateCalls = append(f.updateStateCalls, updateStateCall{id: id, expected: expected, next: next, assigneeID: assigneeID})
	if f.updateStateErr != nil {
		return f.updateStateErr
	}
	if task, ok := f.byID[id]; ok {
		task.State = next
		task.AssigneeID = assigneeID
	}
	return nil
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

type fakeEventsRepo struct {
	created   []*models.Event
	createErr error
}

func (f *fakeEventsRepo) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, event)
	return event, nil
}

func (f *fakeEventsRepo) ListUnprocessed(ctx context.Context, limit int) ([]*models.Event, error) {
	return nil, nil
}

type fakeRepoManager struct {
	users  *fakeUsersRepo
	tasks  *fakeTasksRepo
	events *fakeEventsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:  newFakeUsersRepo(),
		tasks:  newFakeTasksRepo(),
		events: &fakeEventsRepo{},
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository   { return m.users }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository   { return m.tasks }
func (m *fakeRepoManager) Events(db dbx.DBTX) events.Repository { return m.events }

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
