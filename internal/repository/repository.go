// Package repository declares the storage contracts the services depend on.
//
// Implementations live in subpackages (sqlstore, mongostore). They report
// record-level outcomes with apperror.NotFound and apperror.ConflictOn; the
// services translate those into envelope codes.
package repository

import (
	"context"

	"github.com/sakif/hypot/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a user. A taken id or username is reported as
	// apperror.ConflictOn with Field "id" or "username".
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByID returns the user with Owned and Sessions populated.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// AddSession appends a session to the user's active set in one write.
	AddSession(ctx context.Context, userID string, session model.Session) error
	// FindSession returns the user's session whose token hash matches.
	FindSession(ctx context.Context, userID, tokenHash string) (*model.Session, error)
	// RemoveSession deletes exactly the matching session. NotFound if the
	// user has no such session.
	RemoveSession(ctx context.Context, userID, tokenHash string) error
}

type PropertyRepository interface {
	// CreateProperty inserts the property and records it in the owner's
	// owned list as one atomic unit. A taken id is ConflictOn "id".
	CreateProperty(ctx context.Context, property *model.Property) error
	GetPropertyByID(ctx context.Context, id string) (*model.Property, error)
	// ListOwned returns the owner's property ids, oldest first.
	ListOwned(ctx context.Context, ownerID string) ([]string, error)
	// ReplaceAccessList overwrites the shared list wholesale.
	ReplaceAccessList(ctx context.Context, propertyID string, shared []string) error
}

type PointerRepository interface {
	// CreatePointer inserts a pointer. A taken id is ConflictOn "id", a
	// taken address is ConflictOn "address".
	CreatePointer(ctx context.Context, pointer *model.Pointer) error
	GetPointerByAddress(ctx context.Context, address string) (*model.Pointer, error)
}

// Store is a complete storage backend.
type Store interface {
	UserRepository
	PropertyRepository
	PointerRepository

	Ping(ctx context.Context) error
	Close() error
}
