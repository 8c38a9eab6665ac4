// Package gateway defines the credential-gateway contract: the identity
// provider that owns credentials, sessions, and email verification. The
// session controller and the profile service both consume this contract; the
// reference implementation lives in gateway/service.
package gateway

import (
	"context"
	"fmt"
)

// Identity is the provider's authoritative record of who a user is. The rest
// of the system treats it as read-only and polls it on demand.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
}

// ProfileHint carries the profile attributes a federated provider reports
// alongside the identity. Used to pre-populate a profile that does not exist
// yet.
type ProfileHint struct {
	DisplayName string
	Email       string
}

// Client is the client-facing surface of the gateway SDK: credential
// issuance, session state, and verification-email control. Implementations
// hold the current session the way a mobile auth SDK does.
type Client interface {
	// CreateIdentity registers an email/password credential and signs the new
	// identity in.
	CreateIdentity(ctx context.Context, email, password string) (Identity, error)

	// Authenticate signs in with an email/password credential.
	Authenticate(ctx context.Context, email, password string) (Identity, error)

	// ExchangeFederatedToken trades a federated provider token for a gateway
	// session, creating the identity on first sign-in.
	ExchangeFederatedToken(ctx context.Context, token string) (Identity, ProfileHint, error)

	// CurrentSession returns the active identity, or nil when signed out.
	CurrentSession(ctx context.Context) (*Identity, error)

	// SendVerificationEmail requests a verification mail for the session's
	// email address.
	SendVerificationEmail(ctx context.Context) error

	// ReloadVerificationStatus re-reads the verification flag from the
	// provider, picking up out-of-band verification.
	ReloadVerificationStatus(ctx context.Context) (bool, error)

	// MintBearerToken issues a short-lived bearer token proving the session's
	// identity.
	MintBearerToken(ctx context.Context) (string, error)

	// SignOut clears the session. Local state is always reset, even when the
	// provider call fails.
	SignOut(ctx context.Context) error
}

// ErrorCode classifies gateway failures.
type ErrorCode string

const (
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeEmailTaken         ErrorCode = "email_taken"
	CodeInvalidToken       ErrorCode = "invalid_token"
	CodeNoSession          ErrorCode = "no_session"
	CodeUnavailable        ErrorCode = "unavailable"
	CodeInternal           ErrorCode = "internal"
)

// Error is the failure type for every gateway call.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Code)
}

// NewError builds a gateway error with the given code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}
