package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"profilegate/internal/platform/middleware"
	"profilegate/pkg/sentinel"
)

// Claims represents the JWT claims for gateway bearer tokens.
type Claims struct {
	SubjectID string `json:"subject_id"`
	jwt.RegisteredClaims
}

// RevocationStore answers whether a token ID was revoked by sign-out.
type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service mints and validates HS256 bearer tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
	revocation RevocationStore
}

func NewService(signingKey, issuer, audience string, ttl time.Duration, revocation RevocationStore) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		revocation: revocation,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Mint issues a bearer token for the subject and returns the token with its ID.
func (s *Service) Mint(subjectID string) (string, string, error) {
	tokenID := uuid.NewString()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        tokenID,
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}

// ValidateToken parses and verifies a bearer token, rejecting expired and
// revoked tokens. It satisfies middleware.TokenValidator.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, sentinel.ErrExpired
		}
		return nil, sentinel.ErrNotFound
	}
	if !parsed.Valid {
		return nil, sentinel.ErrNotFound
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.SubjectID == "" {
		return nil, sentinel.ErrNotFound
	}

	if s.revocation != nil {
		revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, sentinel.ErrRevoked
		}
	}

	return &middleware.TokenClaims{SubjectID: claims.SubjectID, TokenID: claims.ID}, nil
}
