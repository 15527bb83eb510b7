package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"minesykmeldte/internal/platform/middleware"
	dErrors "minesykmeldte/pkg/domain-errors"
)

// Claims represents the JWT claims on front-end access tokens. The pid claim
// carries the authenticated manager's national ID.
type Claims struct {
	Pid string `json:"pid"`
	jwt.RegisteredClaims
}

// Service handles JWT validation for the HTTP layer.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func New(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// ValidateToken parses and validates a signed token and returns the claims
// the middleware cares about.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &middleware.JWTClaims{Pid: claims.Pid}, nil
}

// Sign issues a token for the given pid. Used by tests and local tooling;
// production tokens come from the ID-porten sidecar.
func (s *Service) Sign(pid string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Pid: pid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
		},
	})
	return token.SignedString(s.signingKey)
}
