// Package httpapi exposes the JSON-over-HTTP boundary of the server: the
// public identity endpoints, the bearer-token authentication gate, and the
// ownership-scoped task endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is the credential store surface consumed by the HTTP layer.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	VerifyToken(token string) (string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
}

// TaskService is the ownership-scoped task surface consumed by the HTTP layer.
type TaskService interface {
	Create(ctx context.Context, ownerID string, fields services.TaskFields) (*models.Task, error)
	List(ctx context.Context, ownerID string) ([]*models.Task, error)
	GetByID(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID string, fields services.TaskFields) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
}

type Server struct {
	address string
	users   UserService
	tasks   TaskService
	logger  logging.Logger
}

func NewServer(a string, l logging.Logger, us UserService, ts TaskService) *Server {
	return &Server{
		address: a,
		logger:  l.With("module", "http_server"),
		users:   us,
		tasks:   ts,
	}
}

// Router builds the chi router with the public identity routes and the
// protected, gate-wrapped task and profile routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleHealth)

	r.Route("/identity", func(r chi.Router) {
		r.Post("/", s.handleRegister)
		r.Post("/session", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/me", s.handleCurrentIdentity)
			r.Put("/profile", s.handleUpdateProfile)
			r.Put("/password", s.handleChangePassword)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListTasks)
		r.Post("/", s.handleCreateTask)
		r.Get("/{id}", s.handleGetTask)
		r.Put("/{id}", s.handleUpdateTask)
		r.Patch("/{id}", s.handleUpdateTask)
		r.Delete("/{id}", s.handleDeleteTask)
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "API working"})
}
