package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/hypot/internal/apperror"
)

// UpdateAccessList replaces the property's shared list wholesale.
//
// A property the caller cannot see is code 7, as in Get. A property the
// caller can see but does not own is code 8.
func (s *PropertyService) UpdateAccessList(ctx context.Context, ownerID, token, propertyID string, shared []string) error {
	user, err := s.authenticate(ctx, ownerID, token)
	if err != nil {
		return s.fail("update access list", err, slog.String("user_id", ownerID))
	}

	p, err := visibleProperty(ctx, s.properties, user, propertyID)
	if err != nil {
		return s.fail("update access list", err, slog.String("property_id", propertyID))
	}
	if p.OwnerID != user.ID {
		return apperror.NotOwner()
	}

	list := normalizeAccessList(shared)
	if err := s.properties.ReplaceAccessList(ctx, p.ID, list); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.PropertyNotFound()
		}
		return s.fail("update access list", err, slog.String("property_id", p.ID))
	}

	s.logger.Info("access list updated",
		slog.String("property_id", p.ID),
		slog.Int("shared", len(list)),
	)
	return nil
}
