// Package profile holds the application's profile record: the mutable
// attributes keyed by the credential gateway's subject ID.
package profile

import "time"

// AccountType tags what kind of account a profile belongs to.
type AccountType string

const (
	AccountTypeClient AccountType = "client"
	AccountTypeStaff  AccountType = "staff"
	AccountTypeAdmin  AccountType = "admin"
)

// Valid reports whether the type is one of the known values.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeClient, AccountTypeStaff, AccountTypeAdmin:
		return true
	}
	return false
}

// Record is the stored profile. SubjectID equals the gateway identity ID, is
// set at creation, and never changes. EmailVerified mirrors the gateway's
// verification flag; it is a cache, updated only by the explicit verify-email
// operation and by fetch-time reconciliation.
type Record struct {
	SubjectID     string      `json:"subjectId"`
	DisplayName   string      `json:"displayName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	AccountType   AccountType `json:"accountType"`
	Gender        string      `json:"gender,omitempty"`
	BirthDate     string      `json:"birthDate,omitempty"`
	EmailVerified bool        `json:"emailVerified"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Patch is a merge-patch: only non-nil fields are written, everything else is
// kept from the existing record (or defaulted on create). The verification
// mirror is deliberately absent; it has its own operation.
type Patch struct {
	DisplayName *string      `json:"displayName,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	AccountType *AccountType `json:"accountType,omitempty"`
	Gender      *string      `json:"gender,omitempty"`
	BirthDate   *string      `json:"birthDate,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.DisplayName == nil && p.Email == nil && p.Phone == nil &&
		p.AccountType == nil && p.Gender == nil && p.BirthDate == nil
}

// ApplyTo is the single merge function all writers go through, so merge
// semantics cannot diverge between callers or between store implementations.
func (p Patch) ApplyTo(r Record) Record {
	if p.DisplayName != nil {
		r.DisplayName = *p.DisplayName
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.AccountType != nil {
		r.AccountType = *p.AccountType
	}
	if p.Gender != nil {
		r.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		r.BirthDate = *p.BirthDate
	}
	return r
}

// NewRecord builds a fresh record for a subject with defaults, then applies
// the patch.
func NewRecord(subjectID string, p Patch, now time.Time) Record {
	record := Record{
		SubjectID:   subjectID,
		AccountType: AccountTypeClient,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return p.ApplyTo(record)
}

// MissingRequiredFields lists the required fields that are still empty. Phone
// is always required; the extended variant also requires gender and birth
// date.
func (r Record) MissingRequiredFields(extended bool) []string {
	var missing []string
	if r.Phone == "" {
		missing = append(missing, "phone")
	}
	if extended {
		if r.Gender == "" {
			missing = append(missing, "gender")
		}
		if r.BirthDate == "" {
			missing = append(missing, "birthDate")
		}
	}
	return missing
}

// StringPtr is a convenience for building patches.
func StringPtr(s string) *string { return &s }

// AccountTypePtr is a convenience for building patches.
func AccountTypePtr(t AccountType) *AccountType { return &t }
