package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/repository"
)

// usernamePattern excludes '.', so a username can always be matched
// exactly as the middle segment of a pointer address.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// IdentityService registers users and manages their sessions.
type IdentityService struct {
	base
	passwords *auth.PasswordService
	admins    map[string]struct{}
}

// NewIdentityService creates an IdentityService. Users who register with a
// name listed in bootstrapAdmins start with admin and premium set.
func NewIdentityService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	bootstrapAdmins []string,
	logger *slog.Logger,
) *IdentityService {
	admins := make(map[string]struct{}, len(bootstrapAdmins))
	for _, name := range bootstrapAdmins {
		admins[name] = struct{}{}
	}
	return &IdentityService{
		base:      newBase(users, logger),
		passwords: passwords,
		admins:    admins,
	}
}

// LoginResult is what a successful login hands back. Token is the only
// copy of the bearer credential; the store keeps just its hash.
type LoginResult struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Token     string `json:"session"`
}

// Register creates a user.
//
// Fails with code 1 when the username is taken. The lookup catches the
// common case; the storage unique index catches a concurrent registration
// of the same name.
func (s *IdentityService) Register(ctx context.Context, username, name, password string) (*model.User, error) {
	name = strings.TrimSpace(name)

	if !usernamePattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username",
			"username must be 1-64 characters of letters, digits, '_' or '-'")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperror.UserExists()
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, s.fail("register", err, slog.String("username", username))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, s.fail("register", err, slog.String("username", username))
	}

	_, privileged := s.admins[username]
	user := &model.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Premium:      privileged,
		Admin:        privileged,
		Owned:        []string{},
		Sessions:     []model.Session{},
		CreatedAt:    s.now().UTC(),
	}

	_, err = s.uniqueID(func(id string) error {
		user.ID = id
		return s.users.CreateUser(ctx, user)
	})
	if apperror.IsConflictOn(err, "username") {
		return nil, apperror.UserExists()
	}
	if err != nil {
		return nil, s.fail("register", err, slog.String("username", username))
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("admin", user.Admin),
	)
	return user, nil
}

// Login verifies the password and opens a new session. A wrong password
// leaves the session list untouched.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound()
		}
		return nil, s.fail("login", err, slog.String("username", username))
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.IncorrectPassword()
		}
		return nil, s.fail("login", err, slog.String("user_id", user.ID))
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, s.fail("login", err, slog.String("user_id", user.ID))
	}

	session := model.Session{
		ID:        auth.NewSessionID(),
		TokenHash: auth.HashToken(token),
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.AddSession(ctx, user.ID, session); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound()
		}
		return nil, s.fail("login", err, slog.String("user_id", user.ID))
	}

	s.logger.Info("user logged in",
		slog.String("id", user.ID),
		slog.String("session_id", session.ID),
	)
	return &LoginResult{ID: user.ID, SessionID: session.ID, Token: token}, nil
}

// Logout removes exactly the session identified by token. Logging out
// twice with the same token fails the second time with code 4.
func (s *IdentityService) Logout(ctx context.Context, id, token string) error {
	if _, err := s.authenticate(ctx, id, token); err != nil {
		return s.fail("logout", err, slog.String("user_id", id))
	}

	if err := s.users.RemoveSession(ctx, id, auth.HashToken(token)); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// another request removed it first
			return apperror.SessionNotFound()
		}
		return s.fail("logout", err, slog.String("user_id", id))
	}

	s.logger.Info("user logged out", slog.String("id", id))
	return nil
}

// OwnedProperties returns the ids of the properties the user owns.
func (s *IdentityService) OwnedProperties(ctx context.Context, id, token string) ([]string, error) {
	user, err := s.authenticate(ctx, id, token)
	if err != nil {
		return nil, s.fail("owned properties", err, slog.String("user_id", id))
	}
	if user.Owned == nil {
		return []string{}, nil
	}
	return user.Owned, nil
}
