package service

import (
	"context"
	"sync"

	"profilegate/internal/gateway"
)

// Client layers session state on top of Service, giving the session
// controller the SDK-like surface of gateway.Client. One Client corresponds
// to one logical user session on a device.
type Client struct {
	svc *Service

	mu      sync.Mutex
	current *gateway.Identity
	minted  []string
}

func NewClient(svc *Service) *Client {
	return &Client{svc: svc}
}

var _ gateway.Client = (*Client)(nil)

func (c *Client) CreateIdentity(ctx context.Context, email, password string) (gateway.Identity, error) {
	identity, err := c.svc.Register(ctx, email, password)
	if err != nil {
		return gateway.Identity{}, err
	}
	c.setSession(identity)
	return identity, nil
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (gateway.Identity, error) {
	identity, err := c.svc.Login(ctx, email, password)
	if err != nil {
		return gateway.Identity{}, err
	}
	c.setSession(identity)
	return identity, nil
}

func (c *Client) ExchangeFederatedToken(ctx context.Context, token string) (gateway.Identity, gateway.ProfileHint, error) {
	identity, hint, err := c.svc.ExchangeFederated(ctx, token)
	if err != nil {
		return gateway.Identity{}, gateway.ProfileHint{}, err
	}
	c.setSession(identity)
	return identity, hint, nil
}

func (c *Client) CurrentSession(ctx context.Context) (*gateway.Identity, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, nil
	}
	snapshot := *c.current
	return &snapshot, nil
}

func (c *Client) SendVerificationEmail(ctx context.Context) error {
	subjectID, err := c.sessionSubject()
	if err != nil {
		return err
	}
	return c.svc.SendVerificationEmail(ctx, subjectID)
}

func (c *Client) ReloadVerificationStatus(ctx context.Context) (bool, error) {
	subjectID, err := c.sessionSubject()
	if err != nil {
		return false, err
	}
	verified, err := c.svc.VerificationStatus(ctx, subjectID)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	if c.current != nil && c.current.SubjectID == subjectID {
		c.current.EmailVerified = verified
	}
	c.mu.Unlock()
	return verified, nil
}

func (c *Client) MintBearerToken(ctx context.Context) (string, error) {
	subjectID, err := c.sessionSubject()
	if err != nil {
		return "", err
	}
	token, tokenID, err := c.svc.MintToken(ctx, subjectID)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.minted = append(c.minted, tokenID)
	c.mu.Unlock()
	return token, nil
}

// SignOut revokes the session's minted tokens and clears local state. Local
// state is cleared even when revocation fails so a device can always sign out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	minted := c.minted
	c.current = nil
	c.minted = nil
	c.mu.Unlock()

	var firstErr error
	for _, tokenID := range minted {
		if err := c.svc.RevokeToken(ctx, tokenID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Client) setSession(identity gateway.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &identity
	c.minted = nil
}

func (c *Client) sessionSubject() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", gateway.NewError(gateway.CodeNoSession, "no active session")
	}
	return c.current.SubjectID, nil
}
