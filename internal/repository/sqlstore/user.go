package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

// CreateUser inserts a new user row. Owned and Sessions are ignored; they
// live in their own tables and start empty.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		`INSERT INTO users (id, username, name, password_hash, premium, admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Username,
		user.Name,
		user.PasswordHash,
		user.Premium,
		user.Admin,
		user.CreatedAt,
	)
	if err != nil {
		return translate(err, "inserting user "+user.Username, "user", map[string]string{
			"id":       user.ID,
			"username": user.Username,
		})
	}
	return nil
}

// GetUserByID retrieves a user with its owned property ids and sessions.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username)
}

// getUser loads one user by column. column is always a constant from this
// file, never caller input.
func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		`SELECT id, username, name, password_hash, premium, admin, created_at
		 FROM users WHERE `+column+` = ?`),
		value,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.PasswordHash,
		&u.Premium,
		&u.Admin,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlstore: getting user by %s %s: %w", column, value, err)
	}

	if u.Owned, err = db.ListOwned(ctx, u.ID); err != nil {
		return nil, err
	}
	if u.Sessions, err = db.listSessions(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) listSessions(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(
		`SELECT id, token_hash, created_at FROM user_sessions
		 WHERE user_id = ? ORDER BY created_at, id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing sessions for %s: %w", userID, err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.TokenHash, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating sessions: %w", err)
	}
	return sessions, nil
}

// AddSession inserts one session row. The user must exist.
func (db *DB) AddSession(ctx context.Context, userID string, session model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	res, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		`INSERT INTO user_sessions (id, user_id, token_hash, created_at)
		 SELECT ?, id, ?, ? FROM users WHERE id = ?`),
		session.ID,
		session.TokenHash,
		session.CreatedAt,
		userID,
	)
	if err != nil {
		return translate(err, "adding session for "+userID, "session", map[string]string{
			"id":         session.ID,
			"token_hash": session.TokenHash,
		})
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

func (db *DB) FindSession(ctx context.Context, userID, tokenHash string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		`SELECT id, token_hash, created_at FROM user_sessions
		 WHERE user_id = ? AND token_hash = ?`),
		userID, tokenHash,
	).Scan(&s.ID, &s.TokenHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", userID)
		}
		return nil, fmt.Errorf("sqlstore: finding session for %s: %w", userID, err)
	}
	return &s, nil
}

// RemoveSession deletes the single session matching tokenHash.
func (db *DB) RemoveSession(ctx context.Context, userID, tokenHash string) error {
	res, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		`DELETE FROM user_sessions WHERE user_id = ? AND token_hash = ?`),
		userID, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: removing session for %s: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("session", userID)
	}
	return nil
}
