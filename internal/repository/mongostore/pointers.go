package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sakif/hypot/internal/model"
)

func (s *Store) CreatePointer(ctx context.Context, p *model.Pointer) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if _, err := s.pointers.InsertOne(ctx, toPointerDoc(p)); err != nil {
		return translate(err, "inserting pointer "+p.Address, "pointer", map[string]string{
			"id":      p.ID,
			"address": p.Address,
		})
	}
	return nil
}

func (s *Store) GetPointerByAddress(ctx context.Context, address string) (*model.Pointer, error) {
	var doc pointerDoc
	if err := s.pointers.FindOne(ctx, bson.D{{Key: "address", Value: address}}).Decode(&doc); err != nil {
		return nil, notFound(err, "getting pointer "+address, "pointer", address)
	}
	return doc.model(), nil
}
