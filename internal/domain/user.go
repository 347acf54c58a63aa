package domain

import "time"

// User is an identity known to the helpdesk. Role is what the identity
// provider signs into issued tokens; it is never read from the client.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// DeactivatedAt is set once an administrator retires the account.
	// Deactivated users keep their tickets but can no longer sign in.
	DeactivatedAt *time.Time
}

// Active reports whether the account may still sign in.
func (u *User) Active() bool {
	return u.DeactivatedAt == nil
}
