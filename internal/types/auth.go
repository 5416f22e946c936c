package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT payload for access tokens. The user id is the only
// custom claim; everything else rides on RegisteredClaims.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthResponse is the register/login success body: the bearer token plus a
// sanitized user representation.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
