package models

import "time"

// Identity is the authenticated caller, resolved from a bearer token and
// re-checked against the store on every request.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	TokenID        string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// AuthResult is returned by login, registration and refresh.
type AuthResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        PublicUser `json:"user"`
	LoginTime   time.Time  `json:"loginTime"`
}
