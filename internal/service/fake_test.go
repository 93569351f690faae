package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/model"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements the three repository interfaces the way the real
// stores do: NotFound for missing records, ConflictOn for unique keys.
// Setting failWith makes every call return that error, which is how the
// tests simulate a database outage.

type fakeStore struct {
	mu         sync.Mutex
	users      map[string]*model.User // by id
	properties map[string]*model.Property
	pointers   map[string]*model.Pointer // by address
	failWith   error

	sessionLookups int   // FindSession calls
	sessionErr     error // returned by FindSession only
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*model.User),
		properties: make(map[string]*model.Property),
		pointers:   make(map[string]*model.Pointer),
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Owned = slices.Clone(u.Owned)
	c.Sessions = slices.Clone(u.Sessions)
	return &c
}

func copyProperty(p *model.Property) *model.Property {
	c := *p
	c.Shared = slices.Clone(p.Shared)
	return &c
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[user.ID]; ok {
		return apperror.ConflictOn("user", "id", user.ID)
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.ConflictOn("user", "username", user.Username)
		}
	}
	stored := copyUser(user)
	stored.Owned = []string{}
	stored.Sessions = []model.Session{}
	f.users[user.ID] = stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return copyUser(u), nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) AddSession(_ context.Context, userID string, session model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.Sessions = append(u.Sessions, session)
	return nil
}

func (f *fakeStore) FindSession(_ context.Context, userID, tokenHash string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionLookups++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	for _, s := range u.Sessions {
		if s.TokenHash == tokenHash {
			return &s, nil
		}
	}
	return nil, apperror.NotFound("session", userID)
}

func (f *fakeStore) RemoveSession(_ context.Context, userID, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	i := slices.IndexFunc(u.Sessions, func(s model.Session) bool { return s.TokenHash == tokenHash })
	if i < 0 {
		return apperror.NotFound("session", userID)
	}
	u.Sessions = slices.Delete(u.Sessions, i, i+1)
	return nil
}

func (f *fakeStore) CreateProperty(_ context.Context, p *model.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.properties[p.ID]; ok {
		return apperror.ConflictOn("property", "id", p.ID)
	}
	owner, ok := f.users[p.OwnerID]
	if !ok {
		return apperror.NotFound("user", p.OwnerID)
	}
	f.properties[p.ID] = copyProperty(p)
	owner.Owned = append(owner.Owned, p.ID)
	return nil
}

func (f *fakeStore) GetPropertyByID(_ context.Context, id string) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.properties[id]
	if !ok {
		return nil, apperror.NotFound("property", id)
	}
	return copyProperty(p), nil
}

func (f *fakeStore) ListOwned(_ context.Context, ownerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[ownerID]; ok {
		return slices.Clone(u.Owned), nil
	}
	return []string{}, nil
}

func (f *fakeStore) ReplaceAccessList(_ context.Context, propertyID string, shared []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	p, ok := f.properties[propertyID]
	if !ok {
		return apperror.NotFound("property", propertyID)
	}
	p.Shared = slices.Clone(shared)
	return nil
}

func (f *fakeStore) CreatePointer(_ context.Context, p *model.Pointer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.pointers {
		if existing.ID == p.ID {
			return apperror.ConflictOn("pointer", "id", p.ID)
		}
	}
	if _, ok := f.pointers[p.Address]; ok {
		return apperror.ConflictOn("pointer", "address", p.Address)
	}
	stored := *p
	f.pointers[p.Address] = &stored
	return nil
}

func (f *fakeStore) GetPointerByAddress(_ context.Context, address string) (*model.Pointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.pointers[address]
	if !ok {
		return nil, apperror.NotFound("pointer", address)
	}
	c := *p
	return &c, nil
}

func (f *fakeStore) sessionCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users[id].Sessions)
}

// =========================================================================
// TEST HELPERS
// =========================================================================

type services struct {
	store      *fakeStore
	identity   *IdentityService
	properties *PropertyService
	pointers   *PointerService
}

// newTestServices wires all services to one fake store. bcrypt runs at
// MinCost to keep the suite fast.
func newTestServices(t *testing.T, admins ...string) *services {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &services{
		store:      store,
		identity:   NewIdentityService(store, auth.NewPasswordServiceForTest(), admins, logger),
		properties: NewPropertyService(store, store, store, logger),
		pointers:   NewPointerService(store, store, store, logger),
	}
}

// session is a logged-in user.
type session struct {
	id, token string
}

// registerAndLogin creates username with password "pw" and logs in once.
func (s *services) registerAndLogin(t *testing.T, username string) session {
	t.Helper()
	ctx := context.Background()
	if _, err := s.identity.Register(ctx, username, username, "pw"); err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	res, err := s.identity.Login(ctx, username, "pw")
	if err != nil {
		t.Fatalf("Login(%q) error = %v", username, err)
	}
	return session{id: res.ID, token: res.Token}
}

// grantPremium flips the premium flag directly in the store.
func (s *services) grantPremium(t *testing.T, id string, admin bool) {
	t.Helper()
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	u, ok := s.store.users[id]
	if !ok {
		t.Fatalf("grantPremium: no user %s", id)
	}
	u.Premium = true
	u.Admin = admin
}

// registerProperty creates a property for sess and fails the test on error.
func (s *services) registerProperty(t *testing.T, sess session, in PropertyInput) *model.Property {
	t.Helper()
	if in.Name == "" {
		in.Name = "file1"
	}
	if in.File == "" {
		in.File = "files/file1.pdf"
	}
	p, err := s.properties.Register(context.Background(), sess.id, sess.token, in)
	if err != nil {
		t.Fatalf("Register property error = %v", err)
	}
	return p
}

// wantCode fails the test unless err carries code.
func wantCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()
	if got := apperror.CodeOf(err); got != code {
		t.Fatalf("code = %d (%v), want %d", got, err, code)
	}
}

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
