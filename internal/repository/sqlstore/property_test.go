package sqlstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

func TestCreateProperty_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "AAAAAAAAAAAA", "alice")

	expires := time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC)
	in := &model.Property{
		ID:      "P00000000001",
		OwnerID: owner.ID,
		Name:    "cv",
		File:    "cv.pdf",
		Public:  true,
		Shared:  []string{"CCCCCCCCCCCC", "BBBBBBBBBBBB"},
		Expires: &expires,
	}
	if err := db.CreateProperty(ctx, in); err != nil {
		t.Fatalf("CreateProperty() error = %v", err)
	}

	got, err := db.GetPropertyByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetPropertyByID() error = %v", err)
	}
	if got.OwnerID != owner.ID || got.Name != "cv" || got.File != "cv.pdf" || !got.Public {
		t.Errorf("GetPropertyByID() = %+v", got)
	}
	// Order of the share list is preserved.
	if !reflect.DeepEqual(got.Shared, in.Shared) {
		t.Errorf("Shared = %v, want %v", got.Shared, in.Shared)
	}
	if got.Expires == nil || !got.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", got.Expires, expires)
	}
}

func TestCreateProperty_NoExpiry(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "AAAAAAAAAAAA", "alice")
	createTestProperty(t, db, "P00000000001", owner.ID)

	got, err := db.GetPropertyByID(context.Background(), "P00000000001")
	if err != nil {
		t.Fatalf("GetPropertyByID() error = %v", err)
	}
	if got.Expires != nil {
		t.Errorf("Expires = %v, want nil", got.Expires)
	}
	if got.Shared == nil {
		t.Error("Shared should be empty, not nil")
	}
}

func TestCreateProperty_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "AAAAAAAAAAAA", "alice")
	createTestProperty(t, db, "P00000000001", owner.ID)

	err := db.CreateProperty(context.Background(), &model.Property{
		ID: "P00000000001", OwnerID: owner.ID, Name: "x", File: "y",
	})
	if !apperror.IsConflictOn(err, "id") {
		t.Fatalf("CreateProperty() error = %v, want conflict on id", err)
	}

	// The failed insert left nothing behind.
	owned, err := db.ListOwned(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListOwned() error = %v", err)
	}
	if len(owned) != 1 {
		t.Errorf("ListOwned() = %v, want one id", owned)
	}
}

func TestCreateProperty_DuplicateShareRollsBack(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "AAAAAAAAAAAA", "alice")

	// (property_id, user_id) is the primary key, so a repeated id fails
	// after the property row was written.
	err := db.CreateProperty(context.Background(), &model.Property{
		ID: "P00000000001", OwnerID: owner.ID, Name: "x", File: "y",
		Shared: []string{"B", "B"},
	})
	if err == nil {
		t.Fatal("CreateProperty() with repeated share should fail")
	}

	if _, err := db.GetPropertyByID(context.Background(), "P00000000001"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("property survived rollback: err = %v", err)
	}
}

func TestGetPropertyByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPropertyByID(context.Background(), "NOPE")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPropertyByID() error = %v, want ErrNotFound", err)
	}
}

func TestListOwned(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "AAAAAAAAAAAA", "alice")
	bob := createTestUser(t, db, "BBBBBBBBBBBB", "bob")
	createTestProperty(t, db, "P00000000001", alice.ID)
	createTestProperty(t, db, "P00000000002", bob.ID)

	owned, err := db.ListOwned(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListOwned() error = %v", err)
	}
	if !reflect.DeepEqual(owned, []string{"P00000000001"}) {
		t.Errorf("ListOwned() = %v", owned)
	}
}

func TestReplaceAccessList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "AAAAAAAAAAAA", "alice")
	createTestProperty(t, db, "P00000000001", owner.ID, "OLD1", "OLD2")

	if err := db.ReplaceAccessList(ctx, "P00000000001", []string{"NEW2", "NEW1"}); err != nil {
		t.Fatalf("ReplaceAccessList() error = %v", err)
	}

	got, err := db.GetPropertyByID(ctx, "P00000000001")
	if err != nil {
		t.Fatalf("GetPropertyByID() error = %v", err)
	}
	if !reflect.DeepEqual(got.Shared, []string{"NEW2", "NEW1"}) {
		t.Errorf("Shared = %v, want [NEW2 NEW1]", got.Shared)
	}

	if err := db.ReplaceAccessList(ctx, "P00000000001", nil); err != nil {
		t.Fatalf("ReplaceAccessList(nil) error = %v", err)
	}
	got, _ = db.GetPropertyByID(ctx, "P00000000001")
	if len(got.Shared) != 0 {
		t.Errorf("Shared = %v, want empty", got.Shared)
	}
}

func TestReplaceAccessList_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.ReplaceAccessList(context.Background(), "NOPE", []string{"A"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ReplaceAccessList() error = %v, want ErrNotFound", err)
	}
}
