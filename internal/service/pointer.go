package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
	"github.com/sakif/hypot/internal/repository"
)

// PointerSuffix is the last segment of every non-admin pointer address.
const PointerSuffix = "hypot"

// PointerService creates aliases for properties. Premium users only.
type PointerService struct {
	base
	properties repository.PropertyRepository
	pointers   repository.PointerRepository
}

func NewPointerService(
	users repository.UserRepository,
	properties repository.PropertyRepository,
	pointers repository.PointerRepository,
	logger *slog.Logger,
) *PointerService {
	return &PointerService{
		base:       newBase(users, logger),
		properties: properties,
		pointers:   pointers,
	}
}

// Add creates a pointer from address to propertyID.
//
// Checks run in order: session (2, 4), premium (6), target (7), address
// format (9, skipped for admins), address uniqueness (10).
func (s *PointerService) Add(ctx context.Context, ownerID, token, propertyID, address string) (*model.Pointer, error) {
	user, err := s.authenticate(ctx, ownerID, token)
	if err != nil {
		return nil, s.fail("add pointer", err, slog.String("user_id", ownerID))
	}
	if !user.Premium {
		return nil, apperror.NotPremium()
	}

	p, err := visibleProperty(ctx, s.properties, user, propertyID)
	if err != nil {
		return nil, s.fail("add pointer", err, slog.String("property_id", propertyID))
	}

	address = strings.TrimSpace(address)
	if address == "" || (!user.Admin && !ValidatePointer(address, user.Username)) {
		return nil, apperror.InvalidPointer()
	}

	ptr := &model.Pointer{
		Address:     address,
		Destination: p.ID,
		CreatedAt:   s.now().UTC(),
	}
	_, err = s.uniqueID(func(id string) error {
		ptr.ID = id
		return s.pointers.CreatePointer(ctx, ptr)
	})
	if apperror.IsConflictOn(err, "address") {
		return nil, apperror.PointerTaken()
	}
	if err != nil {
		return nil, s.fail("add pointer", err, slog.String("address", address))
	}

	s.logger.Info("pointer added",
		slog.String("address", ptr.Address),
		slog.String("destination", ptr.Destination),
	)
	return ptr, nil
}

// ValidatePointer reports whether address has the form
// "<label>.<username>.hypot" with a non-empty label.
func ValidatePointer(address, username string) bool {
	parts := strings.Split(address, ".")
	if len(parts) != 3 {
		return false
	}
	return parts[0] != "" && parts[1] == username && parts[2] == PointerSuffix
}
