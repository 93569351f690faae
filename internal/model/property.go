package model

import (
	"slices"
	"time"
)

// Property is a reference to a stored file together with who may see it.
type Property struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner"`
	Name      string     `json:"name"`
	File      string     `json:"file"`
	Expires   *time.Time `json:"expires,omitempty"`
	Public    bool       `json:"public"`
	Shared    []string   `json:"shared"` // user ids granted read access
	CreatedAt time.Time  `json:"createdAt"`
}

// VisibleTo applies the visibility rule: public, shared with the requester,
// or owned by the requester. Expires is informational and plays no part.
func (p *Property) VisibleTo(userID string) bool {
	return p.Public || p.OwnerID == userID || slices.Contains(p.Shared, userID)
}

// Pointer is a human-readable alias for a property, e.g. "cv.alice.hypot".
type Pointer struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Destination string    `json:"destination"` // property id
	CreatedAt   time.Time `json:"createdAt"`
}
