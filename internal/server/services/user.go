// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, profile and password
// maintenance, and issuing session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length, in bytes.
const MinPasswordLength = 8

// bcryptCost is the work factor for password hashing.
const bcryptCost = 10

// UserService provides authentication-related operations:
// - Register: create identities and mint their first session token
// - Login: verify credentials and mint tokens
// - VerifyToken: resolve a session token back to a user id
// - UpdateProfile / ChangePassword: identity maintenance
type UserService struct {
	repo                  users.Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using the users repository and
// server config. The signing secret is captured here once; nothing reads it
// from the environment afterwards.
func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	return &UserService{
		repo:                  repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register validates the supplied fields, creates the identity, and returns
// it together with a freshly minted session token.
//
// The duplicate-email read before the insert is a fast path only; the unique
// index on users.email is the authoritative guarantee and the repository maps
// its violation to the same common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if err := validateProfile(name, email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, "", common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", common.ErrorInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}
	u, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", common.ErrorAlreadyExists
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.generateToken(u.ID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return u, token, nil
}

// Login verifies the password against the stored hash and, on success, mints
// a new session token. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// VerifyToken checks the token's signature and expiry and returns the
// embedded user id. No issued-token state is consulted.
func (s *UserService) VerifyToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// GetByID returns the current identity record for id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// UpdateProfile replaces name and email in place, with the same validation
// as registration minus the password. A collision with a different
// identity's email yields common.ErrorAlreadyExists.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}

	// fast-path collision check against a *different* identity
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		if existing.ID != id {
			return nil, common.ErrorAlreadyExists
		}
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	user, err := s.repo.UpdateProfile(ctx, id, name, email)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// ChangePassword verifies currentPassword against the stored hash and
// replaces it with the hash of newPassword.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(currentPassword)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return common.ErrorInternal
	}
	return nil
}

func (s *UserService) generateToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.tokenValidityDuration)
}

func validateProfile(name, email string) error {
	if name == "" || email == "" {
		return fmt.Errorf("%w: name and email are required", common.ErrorValidation)
	}
	// a name-addr form like "Ana <ana@x.com>" parses but is not a bare
	// address; the login key must be exactly the addr-spec
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	return nil
}
