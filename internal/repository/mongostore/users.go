package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	doc := toUserDoc(user)
	doc.Owned = []string{}
	doc.Sessions = []sessionDoc{}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return translate(err, "inserting user "+user.Username, "user", map[string]string{
			"id":       user.ID,
			"username": user.Username,
		})
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "id", Value: id}}, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}}, username)
}

func (s *Store) findUser(ctx context.Context, filter bson.D, key string) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err, "getting user "+key, "user", key)
	}
	return doc.model(), nil
}

// AddSession appends with $push, so concurrent logins never overwrite each
// other's sessions.
func (s *Store) AddSession(ctx context.Context, userID string, session model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "sessions", Value: toSessionDoc(session)}}}},
	)
	if err != nil {
		return translate(err, "adding session for "+userID, "session", map[string]string{
			"token_hash": session.TokenHash,
		})
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

// FindSession matches on the indexed sessions.token and projects only the
// matching array element.
func (s *Store) FindSession(ctx context.Context, userID, tokenHash string) (*model.Session, error) {
	var doc struct {
		Sessions []sessionDoc `bson:"sessions"`
	}
	err := s.users.FindOne(ctx,
		bson.D{{Key: "id", Value: userID}, {Key: "sessions.token", Value: tokenHash}},
		options.FindOne().SetProjection(bson.D{{Key: "sessions.$", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err, "finding session for "+userID, "session", userID)
	}
	if len(doc.Sessions) == 0 {
		return nil, apperror.NotFound("session", userID)
	}
	sess := doc.Sessions[0].model()
	return &sess, nil
}

// RemoveSession pulls the matching session. The filter includes the token
// so a miss is reported as NotFound instead of a silent no-op.
func (s *Store) RemoveSession(ctx context.Context, userID, tokenHash string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "id", Value: userID}, {Key: "sessions.token", Value: tokenHash}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "sessions", Value: bson.D{{Key: "token", Value: tokenHash}}}}}},
	)
	if err != nil {
		return translate(err, "removing session for "+userID, "session", nil)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("session", userID)
	}
	return nil
}
