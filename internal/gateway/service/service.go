// Package service is the reference credential-gateway implementation. It owns
// credentials, verification flags, and bearer tokens; profile data lives
// elsewhere and is keyed by the subject IDs issued here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"profilegate/internal/gateway"
	"profilegate/internal/gateway/federated"
	"profilegate/internal/gateway/mailer"
	"profilegate/internal/gateway/store"
	"profilegate/internal/gateway/token"
	"profilegate/pkg/sentinel"
)

// RevocationStore revokes bearer tokens on sign-out.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service implements the gateway's credential operations over an identity
// store. Client (client.go) layers session state on top.
type Service struct {
	logger     *slog.Logger
	identities store.IdentityStore
	tokens     *token.Service
	revocation RevocationStore
	mail       mailer.Mailer
	verifiers  map[string]federated.Verifier
}

func New(
	logger *slog.Logger,
	identities store.IdentityStore,
	tokens *token.Service,
	revocation RevocationStore,
	mail mailer.Mailer,
	verifiers ...federated.Verifier,
) *Service {
	byName := make(map[string]federated.Verifier, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			byName[v.Name()] = v
		}
	}
	return &Service{
		logger:     logger,
		identities: identities,
		tokens:     tokens,
		revocation: revocation,
		mail:       mail,
		verifiers:  byName,
	}
}

// Register creates an email/password identity. The verification flag starts
// false; a verification email is requested separately.
func (s *Service) Register(ctx context.Context, email, password string) (gateway.Identity, error) {
	if !govalidator.IsEmail(email) {
		return gateway.Identity{}, gateway.NewError(gateway.CodeInvalidCredentials, "invalid email address")
	}
	if len(password) < 8 {
		return gateway.Identity{}, gateway.NewError(gateway.CodeInvalidCredentials, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return gateway.Identity{}, gateway.NewError(gateway.CodeInternal, "failed to hash password")
	}

	identity := store.Identity{
		SubjectID:    uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     store.ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return gateway.Identity{}, gateway.NewError(gateway.CodeEmailTaken, "email is already registered")
		}
		s.logger.ErrorContext(ctx, "identity create failed", "error", err)
		return gateway.Identity{}, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}

	return toIdentity(identity), nil
}

// Login checks an email/password credential.
func (s *Service) Login(ctx context.Context, email, password string) (gateway.Identity, error) {
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return gateway.Identity{}, gateway.NewError(gateway.CodeInvalidCredentials, "invalid email or password")
		}
		s.logger.ErrorContext(ctx, "identity lookup failed", "error", err)
		return gateway.Identity{}, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return gateway.Identity{}, gateway.NewError(gateway.CodeInvalidCredentials, "invalid email or password")
	}

	return toIdentity(identity), nil
}

// ExchangeFederated verifies a federated ID token and signs the identity in,
// creating it on first federated sign-in. The provider's verified-email claim
// is trusted as-is.
func (s *Service) ExchangeFederated(ctx context.Context, rawIDToken string) (gateway.Identity, gateway.ProfileHint, error) {
	claims, err := s.verifyFederated(ctx, rawIDToken)
	if err != nil {
		return gateway.Identity{}, gateway.ProfileHint{}, err
	}

	hint := gateway.ProfileHint{DisplayName: claims.Name, Email: claims.Email}

	identity, err := s.identities.FindByEmail(ctx, claims.Email)
	if err == nil {
		return toIdentity(identity), hint, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "identity lookup failed", "error", err)
		return gateway.Identity{}, gateway.ProfileHint{}, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}

	identity = store.Identity{
		SubjectID:     uuid.NewString(),
		Email:         claims.Email,
		Provider:      claims.Provider,
		EmailVerified: claims.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent first sign-in; the stored row wins.
			existing, findErr := s.identities.FindByEmail(ctx, claims.Email)
			if findErr == nil {
				return toIdentity(existing), hint, nil
			}
		}
		s.logger.ErrorContext(ctx, "federated identity create failed", "error", err)
		return gateway.Identity{}, gateway.ProfileHint{}, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}

	return toIdentity(identity), hint, nil
}

func (s *Service) verifyFederated(ctx context.Context, rawIDToken string) (federated.Claims, error) {
	var lastErr error
	for _, verifier := range s.verifiers {
		claims, err := verifier.Verify(ctx, rawIDToken)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		s.logger.WarnContext(ctx, "federated token rejected", "error", lastErr)
	}
	return federated.Claims{}, gateway.NewError(gateway.CodeInvalidToken, "federated token could not be verified")
}

// Identity returns the stored identity for a subject.
func (s *Service) Identity(ctx context.Context, subjectID string) (gateway.Identity, error) {
	identity, err := s.identities.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return gateway.Identity{}, gateway.NewError(gateway.CodeNoSession, "unknown subject")
		}
		return gateway.Identity{}, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}
	return toIdentity(identity), nil
}

// SendVerificationEmail requests a verification mail for the subject.
func (s *Service) SendVerificationEmail(ctx context.Context, subjectID string) error {
	identity, err := s.identities.FindBySubject(ctx, subjectID)
	if err != nil {
		return gateway.NewError(gateway.CodeNoSession, "unknown subject")
	}
	if err := s.mail.SendVerification(ctx, identity.SubjectID, identity.Email); err != nil {
		return gateway.NewError(gateway.CodeUnavailable, "verification email could not be sent")
	}
	return nil
}

// MarkEmailVerified flips the provider's verification flag. Called by the
// profile service's verify-email operation.
func (s *Service) MarkEmailVerified(ctx context.Context, subjectID string) error {
	if err := s.identities.SetEmailVerified(ctx, subjectID, true); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return gateway.NewError(gateway.CodeNoSession, "unknown subject")
		}
		return gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}
	return nil
}

// VerificationStatus re-reads the verification flag from the store.
func (s *Service) VerificationStatus(ctx context.Context, subjectID string) (bool, error) {
	identity, err := s.identities.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, gateway.NewError(gateway.CodeNoSession, "unknown subject")
		}
		return false, gateway.NewError(gateway.CodeUnavailable, "identity store unavailable")
	}
	return identity.EmailVerified, nil
}

// MintToken issues a bearer token for the subject, returning the token and
// its ID for later revocation.
func (s *Service) MintToken(ctx context.Context, subjectID string) (string, string, error) {
	_ = ctx
	signed, tokenID, err := s.tokens.Mint(subjectID)
	if err != nil {
		return "", "", gateway.NewError(gateway.CodeInternal, "failed to mint token")
	}
	return signed, tokenID, nil
}

// RevokeToken invalidates a previously minted bearer token.
func (s *Service) RevokeToken(ctx context.Context, tokenID string) error {
	if err := s.revocation.Revoke(ctx, tokenID, s.tokens.TTL()); err != nil {
		return gateway.NewError(gateway.CodeUnavailable, "revocation store unavailable")
	}
	return nil
}

// Validator exposes the bearer-token validator for the HTTP middleware.
func (s *Service) Validator() *token.Service { return s.tokens }

func toIdentity(identity store.Identity) gateway.Identity {
	return gateway.Identity{
		SubjectID:     identity.SubjectID,
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
	}
}
