// Package services contains server-side business logic. This file implements
// UserService: registration, login, and issuing the stateless access tokens
// that authenticate every other request.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/cryptox"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/config"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	// PasswordMinLen is the minimum accepted password length.
	PasswordMinLen = 8
	// PasswordMaxLen is the bcrypt input limit; longer passwords are a
	// validation failure, not a hashing error.
	PasswordMaxLen = 72
)

// UserService provides authentication-related operations:
// - Register: create users and mint their first token
// - Login: verify credentials and mint tokens
// - Logout: acknowledge; tokens are stateless so nothing is stored or revoked
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a member user and returns it with a fresh access token.
// Every validation failure is collected and returned at once. The user row
// and the user.created event are written in one transaction.
func (s *UserService) Register(ctx context.Context, email, password, confirmation, name string) (*models.User, string, error) {

	ve := &common.ValidationError{}
	if len(password) < PasswordMinLen {
		ve.Add("password is too short (minimum is 8 characters)")
	} else if len(password) > PasswordMaxLen {
		ve.Add("password is too long (maximum is 72 characters)")
	}
	if password != confirmation {
		ve.Add("password confirmation doesn't match password")
	}

	// Hashing waits until the length checks have passed, since bcrypt
	// rejects inputs over PasswordMaxLen bytes. Validate only requires a
	// non-blank hash here; the password itself is covered above.
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        models.NormalizeEmail(email),
		PasswordHash: "pending",
		Name:         name,
		Role:         models.RoleMember,
	}
	if err := user.Validate(); err != nil {
		if uve, ok := common.AsValidationError(err); ok {
			ve.Messages = append(ve.Messages, uve.Messages...)
		}
	}
	if ve.HasErrors() {
		return nil, "", ve
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	user.PasswordHash = hash

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		event := &models.Event{
			ID:        uuid.NewString(),
			EventType: models.EventUserCreated,
			Payload:   map[string]any{"user_id": user.ID, "email": user.Email},
		}
		_, err := s.repomanager.Events(tx).Create(ctx, event)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			ve.Add("email has already been taken")
			return nil, "", ve
		}
		return nil, "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Login verifies the email/password pair and, on success, returns the user
// with a new access token. A wrong password and an unknown email produce the
// same ErrorUnauthorized; callers must not be able to tell them apart.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Logout acknowledges a logout. Tokens are stateless and stay valid until
// expiry; discarding the token is the client's job.
func (s *UserService) Logout(ctx context.Context) error {
	return nil
}
