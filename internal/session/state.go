// Package session implements the client-side authentication and
// profile-completion state machine. It reconciles gateway session state,
// federated sign-in, and the server-side profile record into one observable
// AuthState.
package session

import "fmt"

// StateKind enumerates the observable states.
type StateKind string

const (
	StateSignedOut              StateKind = "signed_out"
	StateSigningIn              StateKind = "signing_in"
	StateNeedsAdditionalInfo    StateKind = "needs_additional_info"
	StateAuthenticating         StateKind = "authenticating"
	StateAuthenticated          StateKind = "authenticated"
	StateNeedsEmailVerification StateKind = "needs_email_verification"
	StateFailed                 StateKind = "failed"
)

// AuthState is an immutable tagged value: exactly one kind, with the payload
// that kind carries. It is replaced atomically on every transition, never
// mutated in place.
type AuthState struct {
	Kind StateKind

	// MissingFields is set for NeedsAdditionalInfo.
	MissingFields []string

	// Message is set for Failed.
	Message string
}

func SignedOut() AuthState      { return AuthState{Kind: StateSignedOut} }
func SigningIn() AuthState      { return AuthState{Kind: StateSigningIn} }
func Authenticating() AuthState { return AuthState{Kind: StateAuthenticating} }
func Authenticated() AuthState  { return AuthState{Kind: StateAuthenticated} }

func NeedsAdditionalInfo(missing []string) AuthState {
	return AuthState{Kind: StateNeedsAdditionalInfo, MissingFields: missing}
}

func NeedsEmailVerification() AuthState {
	return AuthState{Kind: StateNeedsEmailVerification}
}

func Failed(message string) AuthState {
	return AuthState{Kind: StateFailed, Message: message}
}

// ValidationError is bad locally-checked input; it never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PreconditionError reports an operation invoked from a state it is not legal
// in. The state machine is left untouched.
type PreconditionError struct {
	Op   string
	From StateKind
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s is not allowed from state %s", e.Op, e.From)
}
