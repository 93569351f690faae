package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/repository"
)

// Validation limits shared by users and properties.
const (
	MaxNameLength = 100
	MaxFileLength = 2048
)

// PropertyService registers properties and enforces who may read them.
type PropertyService struct {
	base
	properties repository.PropertyRepository
	pointers   repository.PointerRepository
}

func NewPropertyService(
	users repository.UserRepository,
	properties repository.PropertyRepository,
	pointers repository.PointerRepository,
	logger *slog.Logger,
) *PropertyService {
	return &PropertyService{
		base:       newBase(users, logger),
		properties: properties,
		pointers:   pointers,
	}
}

// PropertyInput carries the caller-supplied fields of a new property.
type PropertyInput struct {
	Name    string
	File    string
	Public  bool
	Shared  []string
	Expires *time.Time
}

// Register creates a property owned by ownerID. The property row and the
// owner's owned list are written as one unit by the store.
func (s *PropertyService) Register(ctx context.Context, ownerID, token string, in PropertyInput) (*model.Property, error) {
	user, err := s.authenticate(ctx, ownerID, token)
	if err != nil {
		return nil, s.fail("register property", err, slog.String("user_id", ownerID))
	}

	in.Name = strings.TrimSpace(in.Name)
	in.File = strings.TrimSpace(in.File)

	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(in.Name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if in.File == "" {
		return nil, apperror.ValidationFailed("file", "file is required")
	}
	if len(in.File) > MaxFileLength {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file must be %d characters or less", MaxFileLength))
	}

	p := &model.Property{
		OwnerID:   user.ID,
		Name:      in.Name,
		File:      in.File,
		Public:    in.Public,
		Shared:    normalizeAccessList(in.Shared),
		CreatedAt: s.now().UTC(),
	}
	if in.Expires != nil {
		exp := in.Expires.UTC()
		p.Expires = &exp
	}

	_, err = s.uniqueID(func(id string) error {
		p.ID = id
		return s.properties.CreateProperty(ctx, p)
	})
	if err != nil {
		return nil, s.fail("register property", err, slog.String("user_id", user.ID))
	}

	s.logger.Info("property registered",
		slog.String("id", p.ID),
		slog.String("owner", p.OwnerID),
		slog.Bool("public", p.Public),
	)
	return p, nil
}

// Get resolves query as a property id and, failing that, as a pointer
// address. Absent and not-visible are both reported as code 7 so a caller
// cannot discover private properties.
func (s *PropertyService) Get(ctx context.Context, requesterID, token, query string) (*model.Property, error) {
	user, err := s.authenticate(ctx, requesterID, token)
	if err != nil {
		return nil, s.fail("get property", err, slog.String("user_id", requesterID))
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.PropertyNotFound()
	}

	p, err := s.resolve(ctx, query)
	if err != nil {
		return nil, s.fail("get property", err, slog.String("query", query))
	}

	if !p.VisibleTo(user.ID) {
		return nil, apperror.PropertyNotFound()
	}
	return p, nil
}

// resolve looks query up by id, then by pointer address.
func (s *PropertyService) resolve(ctx context.Context, query string) (*model.Property, error) {
	p, err := s.properties.GetPropertyByID(ctx, query)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	ptr, err := s.pointers.GetPointerByAddress(ctx, query)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.PropertyNotFound()
		}
		return nil, err
	}

	p, err = s.properties.GetPropertyByID(ctx, ptr.Destination)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.PropertyNotFound()
		}
		return nil, err
	}
	return p, nil
}

// visibleProperty loads a property by id for user, reporting code 7 when it
// is missing or hidden from them.
func visibleProperty(ctx context.Context, properties repository.PropertyRepository, user *model.User, id string) (*model.Property, error) {
	p, err := properties.GetPropertyByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.PropertyNotFound()
		}
		return nil, err
	}
	if !p.VisibleTo(user.ID) {
		return nil, apperror.PropertyNotFound()
	}
	return p, nil
}
