package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

func TestUserDoc_StoredFieldNames(t *testing.T) {
	u := &model.User{
		ID:           "0123456789AB",
		Username:     "alice",
		Name:         "Alice",
		PasswordHash: "hash",
		Sessions:     []model.Session{{ID: "s1", TokenHash: "h1"}},
	}

	raw, err := bson.Marshal(toUserDoc(u))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))

	assert.Equal(t, "0123456789AB", m["id"])
	assert.Equal(t, "hash", m["pwd"])
	assert.NotContains(t, m, "_id", "zero ObjectID must be omitted so the server assigns one")
	assert.Equal(t, bson.A{}, m["owned"], "owned must be an empty array, not null")

	var stored struct {
		Sessions []struct {
			Token string `bson:"token"`
		} `bson:"sessions"`
	}
	require.NoError(t, bson.Unmarshal(raw, &stored))
	require.Len(t, stored.Sessions, 1)
	assert.Equal(t, "h1", stored.Sessions[0].Token)
}

func TestDataDoc_ExpiresOmittedWhenNil(t *testing.T) {
	raw, err := bson.Marshal(toDataDoc(&model.Property{ID: "P1", OwnerID: "A", Name: "n", File: "f"}))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "expires")
	assert.Equal(t, "P1", m["uid"])
	assert.Equal(t, bson.A{}, m["shared"])
}

func TestDataDoc_Model(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	got := dataDoc{UID: "P1", Owner: "A", Name: "n", File: "f", Expires: &exp, Shared: nil}.model()

	assert.Equal(t, "P1", got.ID)
	assert.Equal(t, "A", got.OwnerID)
	assert.Equal(t, &exp, got.Expires)
	assert.NotNil(t, got.Shared)
}

func TestDuplicateField(t *testing.T) {
	dup := func(index string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: hypot.x index: " + index + " dup key: { k: \"v\" }",
		}}}
	}

	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{"username", dup("users_username_key"), "username", true},
		{"user id", dup("users_id_key"), "id", true},
		{"session token", dup("users_session_token_key"), "token_hash", true},
		{"property uid", dup("data_uid_key"), "id", true},
		{"pointer address", dup("pointers_address_key"), "address", true},
		{"unknown index", dup("something_else"), "", true},
		{"not a duplicate", errors.New("connection reset"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := duplicateField(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestTranslate(t *testing.T) {
	err := translate(mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: hypot.pointers index: pointers_address_key dup key: { address: \"cv.alice.hypot\" }",
	}}}, "inserting pointer", "pointer", map[string]string{"address": "cv.alice.hypot"})

	assert.True(t, apperror.IsConflictOn(err, "address"))

	plain := translate(errors.New("boom"), "inserting pointer", "pointer", nil)
	assert.False(t, errors.Is(plain, apperror.ErrConflict))
	assert.Contains(t, plain.Error(), "mongostore: inserting pointer: boom")
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments, "getting user", "user", "X"), apperror.ErrNotFound)
	assert.NotErrorIs(t, notFound(errors.New("timeout"), "getting user", "user", "X"), apperror.ErrNotFound)
}
