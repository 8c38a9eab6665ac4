package audit

import "time"

// Action names for the events this service emits.
const (
	ActionProfileCreated = "profile.created"
	ActionProfileUpdated = "profile.updated"
	ActionEmailVerified  = "email.verified"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
