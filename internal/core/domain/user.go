package domain

import "time"

// User is a stored account record.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the subset of User that is safe to hand back to callers.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Public strips the password hash and bookkeeping fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
