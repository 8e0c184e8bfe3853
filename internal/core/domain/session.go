package domain

import "time"

// SessionContextKey is the echo context key the session middleware writes to.
const SessionContextKey = "session"

// SessionState is what the server observes about a request's session token.
type SessionState int

const (
	NoToken SessionState = iota
	ValidToken
	InvalidToken
)

func (s SessionState) String() string {
	switch s {
	case ValidToken:
		return "valid"
	case InvalidToken:
		return "invalid"
	default:
		return "none"
	}
}

// Claims are the identity fields carried by a session token.
type Claims struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is attached to every request. Claims is nil unless State is ValidToken.
type Session struct {
	State  SessionState
	Claims *Claims
}

// Authenticated reports whether the request carried a verified token.
// NoToken and InvalidToken are deliberately indistinguishable here.
func (s Session) Authenticated() bool {
	return s.State == ValidToken && s.Claims != nil
}
