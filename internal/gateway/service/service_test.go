package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profilegate/internal/gateway"
	"profilegate/internal/gateway/federated"
	"profilegate/internal/gateway/mailer"
	"profilegate/internal/gateway/store"
	"profilegate/internal/gateway/store/revocation"
	"profilegate/internal/gateway/token"
)

// stubVerifier accepts one raw token and returns fixed claims.
type stubVerifier struct {
	accept string
	claims federated.Claims
}

func (v *stubVerifier) Name() string { return "stub" }

func (v *stubVerifier) Verify(_ context.Context, rawIDToken string) (federated.Claims, error) {
	if rawIDToken != v.accept {
		return federated.Claims{}, gateway.NewError(gateway.CodeInvalidToken, "unknown token")
	}
	return v.claims, nil
}

type GatewayServiceSuite struct {
	suite.Suite
	identities  store.IdentityStore
	revocations *revocation.InMemoryStore
	tokens      *token.Service
	verifier    *stubVerifier
	service     *Service
}

func TestGatewayServiceSuite(t *testing.T) {
	suite.Run(t, new(GatewayServiceSuite))
}

func (s *GatewayServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.identities = store.NewInMemoryStore()
	s.revocations = revocation.NewInMemoryStore()
	s.tokens = token.NewService("test-key", "profilegate", "profilegate-clients", time.Hour, s.revocations)
	s.verifier = &stubVerifier{
		accept: "good-id-token",
		claims: federated.Claims{
			Provider:      "google",
			Subject:       "google-sub",
			Email:         "ana.garcia@example.com",
			Name:          "Ana Garcia",
			EmailVerified: true,
		},
	}
	s.service = New(logger, s.identities, s.tokens, s.revocations, mailer.NewLogMailer(logger), s.verifier)
}

func (s *GatewayServiceSuite) TestRegisterThenLogin() {
	ctx := context.Background()

	identity, err := s.service.Register(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)
	s.NotEmpty(identity.SubjectID)
	s.False(identity.EmailVerified, "password sign-ups start unverified")

	logged, err := s.service.Login(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)
	s.Equal(identity.SubjectID, logged.SubjectID)
}

func (s *GatewayServiceSuite) TestRegisterRejectsBadInput() {
	ctx := context.Background()

	_, err := s.service.Register(ctx, "not-an-email", "password123")
	s.assertCode(err, gateway.CodeInvalidCredentials)

	_, err = s.service.Register(ctx, "ana.garcia@example.com", "short")
	s.assertCode(err, gateway.CodeInvalidCredentials)
}

func (s *GatewayServiceSuite) TestRegisterDuplicateEmail() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	_, err = s.service.Register(ctx, "Ana.Garcia@example.com", "password456")
	s.assertCode(err, gateway.CodeEmailTaken)
}

func (s *GatewayServiceSuite) TestLoginWrongPassword() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	_, err = s.service.Login(ctx, "ana.garcia@example.com", "wrong-password")
	s.assertCode(err, gateway.CodeInvalidCredentials)
}

func (s *GatewayServiceSuite) TestLoginUnknownEmailSameCodeAsWrongPassword() {
	_, err := s.service.Login(context.Background(), "nobody@example.com", "password123")
	s.assertCode(err, gateway.CodeInvalidCredentials)
}

func (s *GatewayServiceSuite) TestExchangeFederatedCreatesOnFirstSignIn() {
	ctx := context.Background()

	identity, hint, err := s.service.ExchangeFederated(ctx, "good-id-token")
	s.Require().NoError(err)
	s.True(identity.EmailVerified, "provider's verified claim is trusted")
	s.Equal("Ana Garcia", hint.DisplayName)

	// Second exchange resolves to the same identity.
	again, _, err := s.service.ExchangeFederated(ctx, "good-id-token")
	s.Require().NoError(err)
	s.Equal(identity.SubjectID, again.SubjectID)
}

func (s *GatewayServiceSuite) TestExchangeFederatedRejectsUnknownToken() {
	_, _, err := s.service.ExchangeFederated(context.Background(), "forged-token")
	s.assertCode(err, gateway.CodeInvalidToken)
}

func (s *GatewayServiceSuite) TestVerificationLifecycle() {
	ctx := context.Background()
	identity, err := s.service.Register(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	verified, err := s.service.VerificationStatus(ctx, identity.SubjectID)
	s.Require().NoError(err)
	s.False(verified)

	s.Require().NoError(s.service.MarkEmailVerified(ctx, identity.SubjectID))

	verified, err = s.service.VerificationStatus(ctx, identity.SubjectID)
	s.Require().NoError(err)
	s.True(verified)
}

func (s *GatewayServiceSuite) TestMintRevokeRoundTrip() {
	ctx := context.Background()
	identity, err := s.service.Register(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	signed, tokenID, err := s.service.MintToken(ctx, identity.SubjectID)
	s.Require().NoError(err)

	claims, err := s.tokens.ValidateToken(ctx, signed)
	s.Require().NoError(err)
	s.Equal(identity.SubjectID, claims.SubjectID)

	s.Require().NoError(s.service.RevokeToken(ctx, tokenID))
	_, err = s.tokens.ValidateToken(ctx, signed)
	s.Error(err)
}

func (s *GatewayServiceSuite) assertCode(err error, code gateway.ErrorCode) {
	s.T().Helper()
	var gwErr *gateway.Error
	s.Require().ErrorAs(err, &gwErr)
	s.Equal(code, gwErr.Code)
}

// Client-level behavior: session state survives the calls a mobile SDK makes.
func (s *GatewayServiceSuite) TestClientSessionLifecycle() {
	ctx := context.Background()
	client := NewClient(s.service)

	current, err := client.CurrentSession(ctx)
	s.Require().NoError(err)
	s.Nil(current, "fresh client has no session")

	identity, err := client.CreateIdentity(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	current, err = client.CurrentSession(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(current)
	s.Equal(identity.SubjectID, current.SubjectID)

	bearer, err := client.MintBearerToken(ctx)
	s.Require().NoError(err)
	claims, err := s.tokens.ValidateToken(ctx, bearer)
	s.Require().NoError(err)
	s.Equal(identity.SubjectID, claims.SubjectID)

	s.Require().NoError(client.SignOut(ctx))

	current, err = client.CurrentSession(ctx)
	s.Require().NoError(err)
	s.Nil(current)

	// Tokens minted before sign-out are revoked.
	_, err = s.tokens.ValidateToken(ctx, bearer)
	s.Error(err)
}

func (s *GatewayServiceSuite) TestClientReloadVerificationStatus() {
	ctx := context.Background()
	client := NewClient(s.service)

	identity, err := client.CreateIdentity(ctx, "ana.garcia@example.com", "password123")
	s.Require().NoError(err)

	verified, err := client.ReloadVerificationStatus(ctx)
	s.Require().NoError(err)
	s.False(verified)

	s.Require().NoError(s.service.MarkEmailVerified(ctx, identity.SubjectID))

	verified, err = client.ReloadVerificationStatus(ctx)
	s.Require().NoError(err)
	s.True(verified)
}
