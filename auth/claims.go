package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims of a signed-in user. RegisteredClaims.ID is a
// random token id so that two tokens issued in the same second differ.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider,omitempty"` // "local", "google"
}
