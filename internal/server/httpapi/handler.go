package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type userPayload struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
}

type taskPayload struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	State       models.State `json:"state"`
	CreatorID   string       `json:"creator_id"`
	AssigneeID  *string      `json:"assignee_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func newTaskPayload(t *models.Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		State:       t.State,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// renderError maps a service error to its HTTP status. failureMsg becomes
// the error field of a validation response; details carry the individual
// messages.
func (s *HTTPServer) renderError(w http.ResponseWriter, r *http.Request, err error, failureMsg string) {
	if ve, ok := common.AsValidationError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: failureMsg, Details: ve.Messages})
		return
	}

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "You are not authorized to perform this action"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	case errors.Is(err, common.ErrorConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Task was modified concurrently"})
	default:
		s.logger.Error(r.Context(), err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed JSON body"})
		return false
	}
	return true
}

// actor returns the authenticated user or answers 401. The middleware
// guarantees presence on gated routes; this is the belt to its suspenders.
func (s *HTTPServer) actor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	}
	return actor, ok
}

type registerRequest struct {
	User struct {
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
		Name                 string `json:"name"`
	} `json:"user"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := s.users.Register(r.Context(), req.User.Email, req.User.Password, req.User.PasswordConfirmation, req.User.Name)
	if err != nil {
		s.renderError(w, r, err, "Registration failed")
		return
	}

	s.logger.Info(r.Context(), "Registered", "email", user.Email)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    userPayload{ID: user.ID, Email: user.Email, Role: user.Role, CreatedAt: &user.CreatedAt},
		"token":   token,
	})
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := s.users.Login(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
			return
		}
		s.renderError(w, r, err, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    userPayload{ID: user.ID, Email: user.Email, Role: user.Role},
		"token":   token,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	if err := s.users.Logout(r.Context()); err != nil {
		s.renderError(w, r, err, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (s *HTTPServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	tasks, err := s.tasks.List(r.Context(), actor)
	if err != nil {
		s.renderError(w, r, err, "Listing failed")
		return
	}

	payload := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payload = append(payload, newTaskPayload(t))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	task, err := s.tasks.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err, "Lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, newTaskPayload(task))
}

type createTaskRequest struct {
	Task struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		State       models.State `json:"state"`
		AssigneeID  *string      `json:"assignee_id"`
	} `json:"task"`
}

func (s *HTTPServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Create(r.Context(), actor, services.CreateTaskParams{
		Title:       req.Task.Title,
		Description: req.Task.Description,
		State:       req.Task.State,
		AssigneeID:  req.Task.AssigneeID,
	})
	if err != nil {
		s.renderError(w, r, err, "Task creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, newTaskPayload(task))
}

type updateTaskRequest struct {
	Task struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	} `json:"task"`
}

func (s *HTTPServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Update(r.Context(), actor, chi.URLParam(r, "id"), services.UpdateTaskParams{
		Title:       req.Task.Title,
		Description: req.Task.Description,
	})
	if err != nil {
		s.renderError(w, r, err, "Task update failed")
		return
	}
	writeJSON(w, http.StatusOK, newTaskPayload(task))
}

func (s *HTTPServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "Task deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

func (s *HTTPServer) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Assign(r.Context(), actor, chi.URLParam(r, "id"), req.AssigneeID)
	if err != nil {
		s.renderError(w, r, err, "Assignment failed")
		return
	}
	writeJSON(w, http.StatusOK, newTaskPayload(task))
}

type transitionRequest struct {
	State models.State `json:"state"`
}

func (s *HTTPServer) handleTransitionTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := s.tasks.Transition(r.Context(), actor, chi.URLParam(r, "id"), req.State)
	if err != nil {
		s.renderError(w, r, err, "Transition failed")
		return
	}
	writeJSON(w, http.StatusOK, newTaskPayload(task))
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := s.db.PingContext(r.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
	})
}
