package domain

import (
	"time"
)

// User is the durable identity record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	PublicEmail  bool      `json:"public_email"`
	PublicName   bool      `json:"public_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is who a request is acting as, taken from a verified access
// token. The zero value is an anonymous caller.
type Identity struct {
	Subject string
	Role    string
}

// Anonymous reports whether no one is signed in.
func (i Identity) Anonymous() bool {
	return i.Subject == ""
}

// Owns reports whether the identity is the given user. Anonymous callers
// own nothing.
func (i Identity) Owns(userID string) bool {
	return i.Subject != "" && i.Subject == userID
}

// AccountView is a user as seen by a particular caller. Private fields are
// nil unless the caller owns the account or the user made them public.
type AccountView struct {
	ID    string  `json:"id"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Role  string  `json:"role"`
}

// ViewFor returns the user as visible to callerID.
func (u *User) ViewFor(callerID string) AccountView {
	owner := callerID != "" && callerID == u.ID
	view := AccountView{ID: u.ID, Role: u.Role}
	if owner || u.PublicEmail {
		email := u.Email
		view.Email = &email
	}
	if owner || u.PublicName {
		name := u.Name
		view.Name = &name
	}
	return view
}

// Unmasked returns the user with every field visible.
func (u *User) Unmasked() AccountView {
	return u.ViewFor(u.ID)
}

// AccountPatch is a partial account update. A role change is exclusive with
// the personal fields; request validation rejects mixes.
type AccountPatch struct {
	Name        *string
	PublicEmail *bool
	PublicName  *bool
	Role        *string
}

// ChangesRole reports whether this patch takes the role branch.
func (p AccountPatch) ChangesRole() bool {
	return p.Role != nil
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	ID          string `json:"id"`
	AccessToken string `json:"accessToken"`
}
