package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

// stubUserService lets each test script the gate's collaborators.
type stubUserService struct {
	verifyID  string
	verifyErr error

	user   *models.User
	getErr error
}

func (s *stubUserService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	return nil, "", common.ErrorInternal
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	return nil, "", common.ErrorInternal
}

func (s *stubUserService) VerifyToken(token string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return s.verifyID, nil
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	return nil, common.ErrorInternal
}

func (s *stubUserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	return common.ErrorInternal
}

type stubTaskService struct{}

func (stubTaskService) Create(ctx context.Context, ownerID string, fields services.TaskFields) (*models.Task, error) {
	return nil, common.ErrorInternal
}
func (stubTaskService) List(ctx context.Context, ownerID string) ([]*models.Task, error) {
	return nil, common.ErrorInternal
}
func (stubTaskService) GetByID(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	return nil, common.ErrorInternal
}
func (stubTaskService) Update(ctx context.Context, ownerID, taskID string, fields services.TaskFields) (*models.Task, error) {
	return nil, common.ErrorInternal
}
func (stubTaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	return common.ErrorInternal
}

func newTestServer(us UserService) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return NewServer(":0", logger, us, stubTaskService{})
}

func runGate(t *testing.T, s *Server, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	gate := s.authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if _, ok := userFromContext(r.Context()); !ok {
			t.Fatal("identity missing from request context past the gate")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	return rec, reached
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	s := newTestServer(&stubUserService{})

	rec, reached := runGate(t, s, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run without credentials")
	}
}

func TestAuthenticate_MalformedCarrier(t *testing.T) {
	s := newTestServer(&stubUserService{verifyID: "u1", user: &models.User{ID: "u1"}})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", "token-without-scheme"} {
		rec, reached := runGate(t, s, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		if reached {
			t.Fatalf("header %q: handler must not run", header)
		}
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	s := newTestServer(&stubUserService{verifyErr: common.ErrInvalidToken})

	rec, reached := runGate(t, s, "Bearer bad-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run with an invalid token")
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	s := newTestServer(&stubUserService{verifyErr: common.ErrTokenExpired})

	rec, _ := runGate(t, s, "Bearer expired-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_DeletedIdentity(t *testing.T) {
	// a structurally valid token whose identity no longer exists must fail
	s := newTestServer(&stubUserService{verifyID: "ghost", getErr: common.ErrorNotFound})

	rec, reached := runGate(t, s, "Bearer valid-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Fatal("handler must not run for a removed identity")
	}
}

func TestAuthenticate_Success(t *testing.T) {
	s := newTestServer(&stubUserService{verifyID: "u1", user: &models.User{ID: "u1", Name: "Ana"}})

	rec, reached := runGate(t, s, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !reached {
		t.Fatal("handler must run for a valid token")
	}
}
