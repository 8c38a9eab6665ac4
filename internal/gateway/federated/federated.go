package federated

import "context"

// Claims is the normalized identity a federated provider reports. Verifiers
// return identity facts only; account creation and linking stay in the
// gateway service.
type Claims struct {
	Provider      string
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Verifier validates a raw federated ID token and extracts its claims.
type Verifier interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// Verify checks the token's signature, audience, and expiry.
	Verify(ctx context.Context, rawIDToken string) (Claims, error)
}
