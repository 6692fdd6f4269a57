package domain

import (
	"time"
)

// User is the owner of one or more accounts. The ledger only relies on its
// identity; credentials are kept as a bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// Equal reports whether both users share the same identifier.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.ID == other.ID
}

func (u *User) String() string {
	if u == nil {
		return "<nil user>"
	}
	return "User{id=" + u.ID + ", username=" + u.Username + ", email=" + u.Email + "}"
}
