package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims are the JWT claims issued by the Supabase auth frontend
// that gates the API.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Sub   string `json:"sub"`
	Role  string `json:"role"`
}
