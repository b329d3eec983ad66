package models

// JWTClaims are the identity claims the API reads from a verified token.
type JWTClaims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"preferred_username"`
	Picture  string `json:"picture"`
	Iss      string `json:"iss"`
	Exp      int64  `json:"exp"`
}
