package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/hypot/internal/model"
)

type userDoc struct {
	ObjectID     primitive.ObjectID `bson:"_id,omitempty"`
	ID           string             `bson:"id"`
	Username     string             `bson:"username"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"pwd"`
	Premium      bool               `bson:"premium"`
	Admin        bool               `bson:"admin"`
	Owned        []string           `bson:"owned"`
	Sessions     []sessionDoc       `bson:"sessions"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type sessionDoc struct {
	ID        string    `bson:"id"`
	TokenHash string    `bson:"token"`
	CreatedAt time.Time `bson:"created_at"`
}

type dataDoc struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	UID       string             `bson:"uid"`
	Owner     string             `bson:"owner"`
	Name      string             `bson:"name"`
	File      string             `bson:"file"`
	Expires   *time.Time         `bson:"expires,omitempty"`
	Public    bool               `bson:"public"`
	Shared    []string           `bson:"shared"`
	CreatedAt time.Time          `bson:"created_at"`
}

type pointerDoc struct {
	ObjectID    primitive.ObjectID `bson:"_id,omitempty"`
	UID         string             `bson:"uid"`
	Address     string             `bson:"address"`
	Destination string             `bson:"destination"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func toUserDoc(u *model.User) userDoc {
	d := userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Premium:      u.Premium,
		Admin:        u.Admin,
		Owned:        nonNil(u.Owned),
		Sessions:     make([]sessionDoc, 0, len(u.Sessions)),
		CreatedAt:    u.CreatedAt,
	}
	for _, s := range u.Sessions {
		d.Sessions = append(d.Sessions, toSessionDoc(s))
	}
	return d
}

func (d userDoc) model() *model.User {
	u := &model.User{
		ID:           d.ID,
		Username:     d.Username,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Premium:      d.Premium,
		Admin:        d.Admin,
		Owned:        nonNil(d.Owned),
		Sessions:     make([]model.Session, 0, len(d.Sessions)),
		CreatedAt:    d.CreatedAt,
	}
	for _, s := range d.Sessions {
		u.Sessions = append(u.Sessions, s.model())
	}
	return u
}

func toSessionDoc(s model.Session) sessionDoc {
	return sessionDoc{ID: s.ID, TokenHash: s.TokenHash, CreatedAt: s.CreatedAt}
}

func (d sessionDoc) model() model.Session {
	return model.Session{ID: d.ID, TokenHash: d.TokenHash, CreatedAt: d.CreatedAt}
}

func toDataDoc(p *model.Property) dataDoc {
	return dataDoc{
		UID:       p.ID,
		Owner:     p.OwnerID,
		Name:      p.Name,
		File:      p.File,
		Expires:   p.Expires,
		Public:    p.Public,
		Shared:    nonNil(p.Shared),
		CreatedAt: p.CreatedAt,
	}
}

func (d dataDoc) model() *model.Property {
	return &model.Property{
		ID:        d.UID,
		OwnerID:   d.Owner,
		Name:      d.Name,
		File:      d.File,
		Expires:   d.Expires,
		Public:    d.Public,
		Shared:    nonNil(d.Shared),
		CreatedAt: d.CreatedAt,
	}
}

func toPointerDoc(p *model.Pointer) pointerDoc {
	return pointerDoc{UID: p.ID, Address: p.Address, Destination: p.Destination, CreatedAt: p.CreatedAt}
}

func (d pointerDoc) model() *model.Pointer {
	return &model.Pointer{ID: d.UID, Address: d.Address, Destination: d.Destination, CreatedAt: d.CreatedAt}
}

// nonNil keeps empty lists as [] in both BSON and JSON.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
