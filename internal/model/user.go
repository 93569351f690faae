// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash and Sessions never leave the server: they are tagged `json:"-"`
// so a User can be returned from the register operation as-is.
type User struct {
	ID           string    `json:"id"`       // 12 uppercase hex characters
	Username     string    `json:"username"` // unique, never contains a dot
	Name         string    `json:"name"`     // display name
	PasswordHash string    `json:"-"`        // bcrypt
	Premium      bool      `json:"premium"`
	Admin        bool      `json:"admin"`
	Owned        []string  `json:"owned"` // property ids
	Sessions     []Session `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is one active login. Only the SHA-256 of the bearer token is kept;
// the token itself is handed to the client once, at login.
type Session struct {
	ID        string    `json:"id"` // xid
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
