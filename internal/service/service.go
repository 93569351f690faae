// Package service contains the business rules of hypot.
//
//	Handler (HTTP)  → parses requests, writes envelopes
//	Service         → validates sessions, enforces visibility and ownership
//	Repository      → reads/writes documents or rows
//
// Every operation returns (T, error). A refused request is an
// *apperror.AppError carrying an envelope code; any other error is an
// internal fault, logged here and reported to callers as code 0.
//
// Services never import a concrete store. cmd/server picks sqlstore or
// mongostore and injects it; tests inject an in-memory fake.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/repository"
)

// maxIDAttempts bounds the retry loop for random identifiers. With 16^12
// possible ids a second attempt is already rare.
const maxIDAttempts = 8

// base holds what every service needs: session checks, id generation,
// the clock and the logger.
type base struct {
	users  repository.UserRepository
	logger *slog.Logger
	newID  func() (string, error)
	now    func() time.Time
}

func newBase(users repository.UserRepository, logger *slog.Logger) base {
	return base{
		users:  users,
		logger: logger,
		newID:  auth.GenerateID,
		now:    time.Now,
	}
}

// authenticate loads the user and looks the token up by its hash among that
// user's sessions. Unknown user is code 2, unknown or empty token is code 4.
func (b *base) authenticate(ctx context.Context, userID, token string) (*model.User, error) {
	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound()
		}
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}

	if token == "" {
		return nil, apperror.SessionNotFound()
	}
	if _, err := b.users.FindSession(ctx, userID, auth.HashToken(token)); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.SessionNotFound()
		}
		return nil, fmt.Errorf("finding session of %s: %w", userID, err)
	}
	return user, nil
}

// uniqueID calls insert with fresh random ids until one is accepted. Only a
// conflict on "id" triggers another attempt; any other error is returned
// as-is.
func (b *base) uniqueID(insert func(id string) error) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := b.newID()
		if err != nil {
			return "", err
		}
		err = insert(id)
		if apperror.IsConflictOn(err, "id") {
			b.logger.Warn("identifier collision, retrying", slog.String("id", id))
			continue
		}
		return id, err
	}
	return "", fmt.Errorf("no free identifier after %d attempts", maxIDAttempts)
}

// fail logs internal faults and wraps them with op. Coded errors and
// validation errors pass through unchanged.
func (b *base) fail(op string, err error, attrs ...slog.Attr) error {
	if apperror.CodeOf(err) != apperror.CodeInternal || apperror.IsValidation(err) {
		return err
	}
	args := make([]any, 0, len(attrs)+1)
	for _, a := range attrs {
		args = append(args, a)
	}
	args = append(args, slog.String("error", err.Error()))
	b.logger.Error(op+" failed", args...)
	return fmt.Errorf("service: %s: %w", op, err)
}

// normalizeAccessList trims ids, drops empties and removes repeats while
// keeping the first occurrence order.
func normalizeAccessList(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
