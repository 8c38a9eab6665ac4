package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"profilegate/internal/gateway"
	"profilegate/internal/profile"
	"profilegate/pkg/email"
	"profilegate/pkg/sentinel"
)

// ProfileAPI is the slice of the transfer client the controller needs.
type ProfileAPI interface {
	Fetch(ctx context.Context, bearer string) (profile.Record, error)
	Upsert(ctx context.Context, bearer string, patch profile.Patch) (profile.Record, error)
}

// Controller is the session state machine. Every operation declares the
// states it may start from, runs its network calls, and terminates in exactly
// one AuthState assignment. Each operation takes a sequence number at start;
// a completion whose number has been superseded is discarded, so a slow,
// stale response can never resurrect an obsolete state.
type Controller struct {
	logger   *slog.Logger
	gateway  gateway.Client
	profiles ProfileAPI

	// extended requires gender and birthDate in addition to phone before a
	// profile counts as complete.
	extended bool

	mu          sync.Mutex
	state       AuthState
	prevKind    StateKind
	record      profile.Record
	seq         uint64
	subscribers map[int]chan AuthState
	nextSubID   int
}

func NewController(logger *slog.Logger, gw gateway.Client, profiles ProfileAPI, extended bool) *Controller {
	return &Controller{
		logger:      logger,
		gateway:     gw,
		profiles:    profiles,
		extended:    extended,
		state:       SignedOut(),
		subscribers: make(map[int]chan AuthState),
	}
}

// State returns the current AuthState snapshot.
func (c *Controller) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Record returns the controller's copy of the profile record.
func (c *Controller) Record() profile.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Subscribe returns a channel receiving every state transition and a cancel
// function. Slow subscribers miss updates rather than blocking transitions.
func (c *Controller) Subscribe() (<-chan AuthState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan AuthState, 16)
	c.subscribers[id] = ch
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
	return ch, cancel
}

// RestoreSession derives the initial state from the gateway's persisted
// session. Called once at startup.
func (c *Controller) RestoreSession(ctx context.Context) error {
	token, err := c.begin("restoreSession", nil, StateSignedOut)
	if err != nil {
		return err
	}

	identity, gwErr := c.gateway.CurrentSession(ctx)
	if gwErr != nil {
		return c.fail(token, gwErr)
	}
	if identity == nil {
		c.finish(token, SignedOut())
		return nil
	}
	if !identity.EmailVerified {
		c.finish(token, NeedsEmailVerification())
		return nil
	}

	record, _, fetchErr := c.fetchProfile(ctx)
	if fetchErr != nil {
		return c.fail(token, fetchErr)
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// SignUp creates an email/password credential, writes the initial profile,
// and requests a verification email. The account type is validated locally
// before any gateway call. A credential created whose profile write failed is
// not rolled back; CompleteProfile resumes the flow against the same subject.
func (c *Controller) SignUp(ctx context.Context, emailAddr, password string, fields profile.Patch) error {
	token, err := c.begin("signUp", ptr(SigningIn()), StateSignedOut)
	if err != nil {
		return err
	}

	if fields.AccountType != nil && !fields.AccountType.Valid() {
		vErr := &ValidationError{Field: "accountType", Reason: "must be client, staff, or admin"}
		return c.fail(token, vErr)
	}

	identity, gwErr := c.gateway.CreateIdentity(ctx, emailAddr, password)
	if gwErr != nil {
		return c.fail(token, gwErr)
	}

	if fields.Email == nil {
		fields.Email = profile.StringPtr(identity.Email)
	}
	record, upErr := c.upsertProfile(ctx, token, fields)
	if upErr != nil {
		return c.fail(token, upErr)
	}

	if mailErr := c.gateway.SendVerificationEmail(ctx); mailErr != nil {
		return c.fail(token, mailErr)
	}

	c.finishWithRecord(token, NeedsEmailVerification(), record)
	return nil
}

// Login authenticates an email/password credential.
func (c *Controller) Login(ctx context.Context, emailAddr, password string) error {
	token, err := c.begin("login", ptr(SigningIn()), StateSignedOut)
	if err != nil {
		return err
	}

	identity, gwErr := c.gateway.Authenticate(ctx, emailAddr, password)
	if gwErr != nil {
		return c.fail(token, gwErr)
	}
	if !identity.EmailVerified {
		c.finish(token, NeedsEmailVerification())
		return nil
	}

	// A missing record is not fatal here; the profile is created lazily.
	record, _, fetchErr := c.fetchProfile(ctx)
	if fetchErr != nil {
		return c.fail(token, fetchErr)
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// SignInWithFederatedProvider exchanges a federated ID token for a gateway
// session, then decides between Authenticated and NeedsAdditionalInfo based
// on the stored profile's required fields.
func (c *Controller) SignInWithFederatedProvider(ctx context.Context, federatedToken string) error {
	token, err := c.begin("federatedSignIn", ptr(SigningIn()), StateSignedOut)
	if err != nil {
		return err
	}

	identity, hint, gwErr := c.gateway.ExchangeFederatedToken(ctx, federatedToken)
	if gwErr != nil {
		return c.fail(token, gwErr)
	}

	record, found, fetchErr := c.fetchProfile(ctx)
	if fetchErr != nil {
		return c.fail(token, fetchErr)
	}

	if !found {
		displayName := hint.DisplayName
		if displayName == "" {
			displayName = email.DeriveDisplayName(identity.Email)
		}
		record = profile.Record{
			SubjectID:   identity.SubjectID,
			DisplayName: displayName,
			Email:       identity.Email,
			AccountType: profile.AccountTypeClient,
		}
	}

	missing := record.MissingRequiredFields(c.extended)
	if len(missing) > 0 {
		c.finishWithRecord(token, NeedsAdditionalInfo(missing), record)
		return nil
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// CompleteProfile merge-patches the missing required fields, upserts, and
// re-fetches to confirm. Legal from Failed and NeedsEmailVerification as well
// so a partially completed sign-up can resume against the live gateway
// session; an unverified email still has to be verified before the user lands
// in Authenticated.
func (c *Controller) CompleteProfile(ctx context.Context, patch profile.Patch) error {
	token, from, err := c.beginFrom("completeProfile", ptr(Authenticating()),
		StateNeedsAdditionalInfo, StateFailed, StateNeedsEmailVerification)
	if err != nil {
		return err
	}

	// Carry over locally known fields the server may not have yet, then let
	// the supplied patch win.
	base := c.localPatch()
	merged := mergePatches(base, patch)

	if _, upErr := c.upsertProfile(ctx, token, merged); upErr != nil {
		return c.fail(token, upErr)
	}

	record, found, fetchErr := c.fetchProfile(ctx)
	if fetchErr != nil {
		return c.fail(token, fetchErr)
	}
	if !found {
		return c.fail(token, errors.New("profile missing after write"))
	}
	if from == StateNeedsEmailVerification {
		c.finishWithRecord(token, NeedsEmailVerification(), record)
		return nil
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// RefreshVerificationStatus re-polls the gateway. Verified moves the machine
// forward; unverified leaves it exactly where it was, with no profile fetch.
func (c *Controller) RefreshVerificationStatus(ctx context.Context) error {
	token, err := c.begin("refreshVerificationStatus", nil, StateNeedsEmailVerification)
	if err != nil {
		return err
	}

	verified, gwErr := c.gateway.ReloadVerificationStatus(ctx)
	if gwErr != nil {
		return c.fail(token, gwErr)
	}
	if !verified {
		c.finish(token, NeedsEmailVerification())
		return nil
	}

	record, _, fetchErr := c.fetchProfile(ctx)
	if fetchErr != nil {
		return c.fail(token, fetchErr)
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// ResendVerificationEmail is fire-and-forget: success changes nothing, a
// transport failure surfaces as a dismissible Failed.
func (c *Controller) ResendVerificationEmail(ctx context.Context) error {
	token, err := c.begin("resendVerificationEmail", nil, StateNeedsEmailVerification)
	if err != nil {
		return err
	}

	if gwErr := c.gateway.SendVerificationEmail(ctx); gwErr != nil {
		return c.fail(token, gwErr)
	}
	c.finish(token, NeedsEmailVerification())
	return nil
}

// UpdateProfile edits an authenticated user's record. Failure surfaces as a
// returned error only; the user stays Authenticated either way.
func (c *Controller) UpdateProfile(ctx context.Context, patch profile.Patch) error {
	token, err := c.begin("updateProfile", nil, StateAuthenticated)
	if err != nil {
		return err
	}

	record, upErr := c.upsertProfile(ctx, token, patch)
	if upErr != nil {
		c.finish(token, Authenticated())
		return upErr
	}
	c.finishWithRecord(token, Authenticated(), record)
	return nil
}

// Logout clears the gateway session and resets local state. It succeeds even
// when the gateway call fails: local state is always reset.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	c.mu.Unlock()

	if err := c.gateway.SignOut(ctx); err != nil {
		c.logger.WarnContext(ctx, "gateway sign-out failed, clearing local state anyway", "error", err)
	}

	c.mu.Lock()
	c.record = profile.Record{}
	c.setStateLocked(SignedOut())
	c.mu.Unlock()
	return nil
}

// Dismiss acknowledges a failure. A failure raised while waiting for email
// verification returns there; anything else resets to SignedOut.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != StateFailed {
		return &PreconditionError{Op: "dismiss", From: c.state.Kind}
	}
	c.seq++
	if c.prevKind == StateNeedsEmailVerification {
		c.setStateLocked(NeedsEmailVerification())
	} else {
		c.setStateLocked(SignedOut())
	}
	return nil
}

// begin validates the source state, claims a sequence number, and optionally
// publishes a transient state.
func (c *Controller) begin(op string, transient *AuthState, allowed ...StateKind) (uint64, error) {
	token, _, err := c.beginFrom(op, transient, allowed...)
	return token, err
}

// beginFrom is begin plus the state the operation started from, for the
// operations whose terminal state depends on it.
func (c *Controller) beginFrom(op string, transient *AuthState, allowed ...StateKind) (uint64, StateKind, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state.Kind
	legal := false
	for _, kind := range allowed {
		if from == kind {
			legal = true
			break
		}
	}
	if !legal {
		return 0, from, &PreconditionError{Op: op, From: from}
	}

	c.seq++
	if transient != nil {
		c.setStateLocked(*transient)
	}
	return c.seq, from, nil
}

// finish publishes the terminal state unless a newer operation superseded
// this one.
func (c *Controller) finish(token uint64, state AuthState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		c.logger.Debug("discarding superseded state", "kind", state.Kind)
		return
	}
	c.setStateLocked(state)
}

func (c *Controller) finishWithRecord(token uint64, state AuthState, record profile.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		c.logger.Debug("discarding superseded state", "kind", state.Kind)
		return
	}
	c.record = record
	c.setStateLocked(state)
}

func (c *Controller) fail(token uint64, err error) error {
	c.finish(token, Failed(err.Error()))
	return err
}

func (c *Controller) setStateLocked(state AuthState) {
	if state.Kind == StateFailed && c.state.Kind != StateFailed {
		c.prevKind = c.state.Kind
	}
	c.state = state
	for _, ch := range c.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}

// fetchProfile mints a bearer token and reads the record. A 404 is reported
// as found=false, not as an error.
func (c *Controller) fetchProfile(ctx context.Context) (profile.Record, bool, error) {
	bearer, err := c.gateway.MintBearerToken(ctx)
	if err != nil {
		return profile.Record{}, false, err
	}
	record, err := c.profiles.Fetch(ctx, bearer)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return profile.Record{}, false, nil
		}
		return profile.Record{}, false, err
	}
	return record, true, nil
}

// upsertProfile writes the patch and caches the returned record, unless a
// newer operation superseded this one while the write was in flight.
func (c *Controller) upsertProfile(ctx context.Context, token uint64, patch profile.Patch) (profile.Record, error) {
	bearer, err := c.gateway.MintBearerToken(ctx)
	if err != nil {
		return profile.Record{}, err
	}
	record, err := c.profiles.Upsert(ctx, bearer, patch)
	if err != nil {
		return profile.Record{}, err
	}

	c.mu.Lock()
	if token == c.seq {
		c.record = record
	}
	c.mu.Unlock()
	return record, nil
}

// localPatch turns the controller's known record fields into a patch so a
// first CompleteProfile write carries the federated hint along.
func (c *Controller) localPatch() profile.Patch {
	c.mu.Lock()
	defer c.mu.Unlock()
	var patch profile.Patch
	if c.record.DisplayName != "" {
		patch.DisplayName = profile.StringPtr(c.record.DisplayName)
	}
	if c.record.Email != "" {
		patch.Email = profile.StringPtr(c.record.Email)
	}
	if c.record.Phone != "" {
		patch.Phone = profile.StringPtr(c.record.Phone)
	}
	if c.record.Gender != "" {
		patch.Gender = profile.StringPtr(c.record.Gender)
	}
	if c.record.BirthDate != "" {
		patch.BirthDate = profile.StringPtr(c.record.BirthDate)
	}
	if c.record.AccountType != "" {
		patch.AccountType = profile.AccountTypePtr(c.record.AccountType)
	}
	return patch
}

func mergePatches(base, override profile.Patch) profile.Patch {
	if override.DisplayName != nil {
		base.DisplayName = override.DisplayName
	}
	if override.Email != nil {
		base.Email = override.Email
	}
	if override.Phone != nil {
		base.Phone = override.Phone
	}
	if override.AccountType != nil {
		base.AccountType = override.AccountType
	}
	if override.Gender != nil {
		base.Gender = override.Gender
	}
	if override.BirthDate != nil {
		base.BirthDate = override.BirthDate
	}
	return base
}

func ptr(s AuthState) *AuthState { return &s }
