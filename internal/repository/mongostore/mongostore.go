// Package mongostore implements the repository interfaces on MongoDB.
//
// The layout follows the service's historical document schema: users keep
// their owned property ids and active sessions inline, properties live in
// the "data" collection keyed by "uid", and pointers are their own
// documents. Uniqueness is enforced by named unique indexes that
// EnsureIndexes creates on Open.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/repository"
)

const (
	usersCollection    = "users"
	dataCollection     = "data"
	pointersCollection = "pointers"

	disconnectTimeout = 5 * time.Second
)

var _ repository.Store = (*Store)(nil)

// collection is the part of *mongo.Collection the repository methods use.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Store holds the client, the database and its three collections.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	users    collection
	data     collection
	pointers collection
	logger   *slog.Logger
}

// Open connects to uri, pings the primary, and makes sure every unique
// index exists in database.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		db:       db,
		users:    db.Collection(usersCollection),
		data:     db.Collection(dataCollection),
		pointers: db.Collection(pointersCollection),
		logger:   logger,
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, waiting at most disconnectTimeout for
// in-flight operations.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// uniqueIndex describes one unique index and the field name reported in
// apperror.ConflictOn when it is violated.
type uniqueIndex struct {
	collection string
	name       string
	key        string
	field      string
	// sparseArray restricts the index to documents where key exists, so
	// users with no sessions do not collide on a missing value.
	sparseArray bool
}

var uniqueIndexes = []uniqueIndex{
	{collection: usersCollection, name: "users_id_key", key: "id", field: "id"},
	{collection: usersCollection, name: "users_username_key", key: "username", field: "username"},
	{collection: usersCollection, name: "users_session_token_key", key: "sessions.token", field: "token_hash", sparseArray: true},
	{collection: dataCollection, name: "data_uid_key", key: "uid", field: "id"},
	{collection: pointersCollection, name: "pointers_uid_key", key: "uid", field: "id"},
	{collection: pointersCollection, name: "pointers_address_key", key: "address", field: "address"},
}

// EnsureIndexes creates the unique indexes. Creating an index that already
// exists with the same definition is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idx := range uniqueIndexes {
		opts := options.Index().SetName(idx.name).SetUnique(true)
		if idx.sparseArray {
			opts.SetPartialFilterExpression(bson.D{{Key: idx.key, Value: bson.D{{Key: "$exists", Value: true}}}})
		}
		model := mongo.IndexModel{Keys: bson.D{{Key: idx.key, Value: 1}}, Options: opts}

		if _, err := s.db.Collection(idx.collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongostore: creating index %s: %w", idx.name, err)
		}
	}
	return nil
}

// duplicateField returns the field guarded by the unique index named in a
// duplicate key error. E11000 messages carry "index: <name> dup key".
func duplicateField(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, idx := range uniqueIndexes {
		if strings.Contains(msg, "index: "+idx.name+" ") {
			return idx.field, true
		}
	}
	return "", true
}

// translate maps duplicate key errors to apperror.ConflictOn and wraps the
// rest with op.
func translate(err error, op, resource string, values map[string]string) error {
	if field, ok := duplicateField(err); ok {
		return apperror.ConflictOn(resource, field, values[field])
	}
	return fmt.Errorf("mongostore: %s: %w", op, err)
}

// notFound turns mongo.ErrNoDocuments into apperror.NotFound.
func notFound(err error, op, resource, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("mongostore: %s: %w", op, err)
}
