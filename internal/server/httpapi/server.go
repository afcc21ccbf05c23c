// Package httpapi exposes the task-tracking services over JSON HTTP:
// registration and login, the task operations behind a bearer-token gate,
// and a health endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type userService interface {
	Register(ctx context.Context, email, password, confirmation, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context) error
}

type taskService interface {
	List(ctx context.Context, actor *models.User) ([]*models.Task, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Task, error)
	Create(ctx context.Context, actor *models.User, params services.CreateTaskParams) (*models.Task, error)
	Update(ctx context.Context, actor *models.User, id string, params services.UpdateTaskParams) (*models.Task, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Assign(ctx context.Context, actor *models.User, id, assigneeID string) (*models.Task, error)
	Transition(ctx context.Context, actor *models.User, id string, target models.State) (*models.Task, error)
}

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     userService
	tasks     taskService
	usersRepo users.Repository
	db        *sql.DB
	jwtSecret []byte
}

func NewHTTPServer(address string, l logging.Logger, us userService, ts taskService, usersRepo users.Repository, db *sql.DB, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		tasks:     ts,
		usersRepo: usersRepo,
		db:        db,
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles the route tree. Register, login, and health are open;
// everything else sits behind the token gate.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Delete("/auth/logout", s.handleLogout)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.handleListTasks)
				r.Post("/", s.handleCreateTask)
				r.Get("/{id}", s.handleGetTask)
				r.Patch("/{id}", s.handleUpdateTask)
				r.Delete("/{id}", s.handleDeleteTask)
				r.Post("/{id}/assign", s.handleAssignTask)
				r.Post("/{id}/transition", s.handleTransitionTask)
			})
		})
	})

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{Addr: s.address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
