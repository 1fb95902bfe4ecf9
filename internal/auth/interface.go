package auth

import "archivist/internal/domain/models"

// JWTVerifier validates bearer tokens issued by the identity provider.
// The middleware only relies on this interface, so HS256 and JWKS verification are interchangeable.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
