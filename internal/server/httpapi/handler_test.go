package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- test logger ----

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

// ---- fakes ----

type fakeUserSvc struct {
	registerUser  *models.User
	registerToken string
	registerErr   error

	loginUser  *models.User
	loginToken string
	loginErr   error

	logoutErr error
}

func (f *fakeUserSvc) Register(ctx context.Context, email, password, confirmation, name string) (*models.User, string, error) {
	return f.registerUser, f.registerToken, f.registerErr
}

func (f *fakeUserSvc) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	return f.loginUser, f.loginToken, f.loginErr
}

func (f *fakeUserSvc) Logout(ctx context.Context) error { return f.logoutErr }

type fakeTaskSvc struct {
	listResp   []*models.Task
	listErr    error
	getResp    *models.Task
	getErr     error
	createResp *models.Task
	createErr  error
	updateResp *models.Task
	updateErr  error
	deleteErr  error
	assignResp *models.Task
	assignErr  error
	transResp  *models.Task
	transErr   error

	lastActor *models.User
}

func (f *fakeTaskSvc) List(ctx context.Context, actor *models.User) ([]*models.Task, error) {
	f.lastActor = actor
	return f.listResp, f.listErr
}

func (f *fakeTaskSvc) Get(ctx context.Context, actor *models.User, id string) (*models.Task, error) {
	f.lastActor = actor
	return f.getResp, f.getErr
}

func (f *fakeTaskSvc) Create(ctx context.Context, actor *models.User, params services.CreateTaskParams) (*models.Task, error) {
	f.lastActor = actor
	return f.createResp, f.createErr
}

func (f *fakeTaskSvc) Update(ctx context.Context, actor *models.User, id string, params services.UpdateTaskParams) (*models.Task, error) {
	f.lastActor = actor
	return f.updateResp, f.updateErr
}

func (f *fakeTaskSvc) Delete(ctx context.Context, actor *models.User, id string) error {
	f.lastActor = actor
	return f.deleteErr
}

func (f *fakeTaskSvc) Assign(ctx context.Context, actor *models.User, id, assigneeID string) (*models.Task, error) {
	f.lastActor = actor
	return f.assignResp, f.assignErr
}

func (f *fakeTaskSvc) Transition(ctx context.Context, actor *models.User, id string, target models.State) (*models.Task, error) {
	f.lastActor = actor
	return f.transResp, f.transErr
}

type fakeUserRepo struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

// ---- helpers ----

func newTestServer(t *testing.T, us *fakeUserSvc, ts *fakeTaskSvc, repo *fakeUserRepo) (*HTTPServer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if repo == nil {
		repo = &fakeUserRepo{users: map[string]*models.User{}}
	}

	return &HTTPServer{
		address:   "127.0.0.1:0",
		logger:    nopLogger{},
		users:     us,
		tasks:     ts,
		usersRepo: repo,
		db:        db,
		jwtSecret: []byte("k"),
	}, mock
}

func doRequest(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte("k"), time.Hour)
	require.NoError(t, err)
	return token
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ---- tests ----

func TestHandleRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		us := &fakeUserSvc{
			registerUser:  &models.User{ID: "u1", Email: "new@example.com", Role: models.RoleMember},
			registerToken: "tok",
		}
		s, _ := newTestServer(t, us, &fakeTaskSvc{}, nil)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/auth/register",
			`{"user":{"email":"new@example.com","password":"password123","password_confirmation":"password123","name":"New"}}`, "")

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "User registered successfully", body["message"])
		assert.Equal(t, "tok", body["token"])
	})

	t.Run("validation failure carries every detail", func(t *testing.T) {
		ve := &common.ValidationError{}
		ve.Add("password is too short (minimum is 8 characters)")
		ve.Add("email must be a valid email address")
		us := &fakeUserSvc{registerErr: ve}
		s, _ := newTestServer(t, us, &fakeTaskSvc{}, nil)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/auth/register", `{"user":{}}`, "")

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "Registration failed", body["error"])
		assert.Len(t, body["details"], 2)
	})

	t.Run("malformed json", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeUserSvc{}, &fakeTaskSvc{}, nil)
		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/auth/register", `{"user":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		us := &fakeUserSvc{
			loginUser:  &models.User{ID: "u1", Email: "known@example.com", Role: models.RoleMember},
			loginToken: "tok",
		}
		s, _ := newTestServer(t, us, &fakeTaskSvc{}, nil)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/auth/login",
			`{"user":{"email":"known@example.com","password":"password123"}}`, "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "Login successful", body["message"])
		assert.Equal(t, "tok", body["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		us := &fakeUserSvc{loginErr: common.ErrorUnauthorized}
		s, _ := newTestServer(t, us, &fakeTaskSvc{}, nil)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/auth/login",
			`{"user":{"email":"known@example.com","password":"wrong"}}`, "")

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", decodeJSON(t, w)["error"])
	})
}

func TestHandleLogout(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Role: models.RoleMember}}}
	s, _ := newTestServer(t, &fakeUserSvc{}, &fakeTaskSvc{}, repo)

	w := doRequest(t, s.Router(), http.MethodDelete, "/api/v1/auth/logout", "", tokenFor(t, "u1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logout successful", decodeJSON(t, w)["message"])
}

func TestTaskHandlers(t *testing.T) {
	actor := &models.User{ID: "u1", Role: models.RoleMember}
	repo := &fakeUserRepo{users: map[string]*models.User{"u1": actor}}
	token := tokenFor(t, "u1")

	task := &models.Task{ID: "t1", Title: "Write docs", State: models.StateDraft, CreatorID: "u1"}

	t.Run("list passes the resolved actor to the service", func(t *testing.T) {
		ts := &fakeTaskSvc{listResp: []*models.Task{task}}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodGet, "/api/v1/tasks", "", token)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, ts.lastActor)
		assert.Equal(t, "u1", ts.lastActor.ID)

		var payload []taskPayload
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "t1", payload[0].ID)
	})

	t.Run("get missing task is 404", func(t *testing.T) {
		ts := &fakeTaskSvc{getErr: common.ErrorNotFound}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodGet, "/api/v1/tasks/nope", "", token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create is 201", func(t *testing.T) {
		ts := &fakeTaskSvc{createResp: task}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/tasks",
			`{"task":{"title":"Write docs"}}`, token)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "t1", decodeJSON(t, w)["id"])
	})

	t.Run("update by a stranger is 403", func(t *testing.T) {
		ts := &fakeTaskSvc{updateErr: common.ErrorForbidden}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodPatch, "/api/v1/tasks/t1",
			`{"task":{"title":"Hijack"}}`, token)

		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You are not authorized to perform this action", decodeJSON(t, w)["error"])
	})

	t.Run("delete is 204", func(t *testing.T) {
		ts := &fakeTaskSvc{}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodDelete, "/api/v1/tasks/t1", "", token)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("assign validation failure is 422", func(t *testing.T) {
		ve := &common.ValidationError{}
		ve.Add("task cannot be assigned while completed")
		ts := &fakeTaskSvc{assignErr: ve}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/tasks/t1/assign",
			`{"assignee_id":"u2"}`, token)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "Assignment failed", body["error"])
	})

	t.Run("lost transition race is 409", func(t *testing.T) {
		ts := &fakeTaskSvc{transErr: common.ErrorConflict}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodPost, "/api/v1/tasks/t1/transition",
			`{"state":"completed"}`, token)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unexpected error is an opaque 500", func(t *testing.T) {
		ts := &fakeTaskSvc{listErr: common.ErrorInternal}
		s, _ := newTestServer(t, &fakeUserSvc{}, ts, repo)

		w := doRequest(t, s.Router(), http.MethodGet, "/api/v1/tasks", "", token)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeJSON(t, w)["error"])
	})
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeUserSvc{}, &fakeTaskSvc{}, nil)

	w := doRequest(t, s.Router(), http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.NotEmpty(t, body["timestamp"])
}
