package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

// CreateProperty inserts the data document and then adds its uid to the
// owner's owned list. If the second write fails the data document is
// deleted again, so a property never exists without an owner entry.
func (s *Store) CreateProperty(ctx context.Context, p *model.Property) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if _, err := s.data.InsertOne(ctx, toDataDoc(p)); err != nil {
		return translate(err, "inserting property "+p.ID, "property", map[string]string{"id": p.ID})
	}

	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "id", Value: p.OwnerID}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "owned", Value: p.ID}}}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = apperror.NotFound("user", p.OwnerID)
	}
	if err != nil {
		if _, delErr := s.data.DeleteOne(ctx, bson.D{{Key: "uid", Value: p.ID}}); delErr != nil {
			s.logger.Error("mongostore: compensating delete failed",
				slog.String("property_id", p.ID),
				slog.String("error", delErr.Error()),
			)
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("mongostore: recording ownership of %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetPropertyByID(ctx context.Context, id string) (*model.Property, error) {
	var doc dataDoc
	if err := s.data.FindOne(ctx, bson.D{{Key: "uid", Value: id}}).Decode(&doc); err != nil {
		return nil, notFound(err, "getting property "+id, "property", id)
	}
	return doc.model(), nil
}

// ListOwned reads the owner's owned list. An unknown owner owns nothing.
func (s *Store) ListOwned(ctx context.Context, ownerID string) ([]string, error) {
	var doc struct {
		Owned []string `bson:"owned"`
	}
	err := s.users.FindOne(ctx,
		bson.D{{Key: "id", Value: ownerID}},
		options.FindOne().SetProjection(bson.D{{Key: "owned", Value: 1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: listing properties of %s: %w", ownerID, err)
	}
	return nonNil(doc.Owned), nil
}

// ReplaceAccessList overwrites the shared array in a single $set.
func (s *Store) ReplaceAccessList(ctx context.Context, propertyID string, shared []string) error {
	res, err := s.data.UpdateOne(ctx,
		bson.D{{Key: "uid", Value: propertyID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "shared", Value: nonNil(shared)}}}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: replacing access list of %s: %w", propertyID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("property", propertyID)
	}
	return nil
}
