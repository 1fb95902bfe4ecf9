package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"archivist/internal/domain"
	"archivist/internal/domain/models"
)

// tokenVerifier implements JWTVerifier for a fixed key source and algorithm set
type tokenVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier picks the verification mode from the configuration:
// a shared HS256 secret when one is set, otherwise the JWKS endpoint.
func NewJWTVerifier(secret, jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if secret != "" {
		return NewHMACVerifier([]byte(secret), logger), nil
	}
	return NewJWKSVerifier(jwksURL, logger)
}

// NewHMACVerifier verifies HS256 tokens signed with a shared secret
func NewHMACVerifier(secret []byte, logger *slog.Logger) JWTVerifier {
	logger.Info("JWT verifier initialized", "mode", "hs256")
	return &tokenVerifier{
		keyfunc: func(*jwt.Token) (any, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
		cancel:  func() {},
		logger:  logger,
	}
}

// NewJWKSVerifier creates a verifier that fetches public keys from a JWKS endpoint.
// The keys are cached and refreshed in the background until Close is called.
func NewJWKSVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("either JWT_SECRET or JWKS_URL must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "mode", "jwks", "jwks_url", jwksURL)

	return &tokenVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// VerifyToken validates the signature, expiry and subject of a token.
// Every failure maps to domain.ErrUnauthorized.
func (v *tokenVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if _, err := claims.GetUserID(); err != nil {
		v.logger.Debug("token subject is not a user id", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

func (v *tokenVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}
