package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyToLeavesUnmentionedFieldsAlone(t *testing.T) {
	existing := Record{
		SubjectID:   "subject-1",
		DisplayName: "Ana",
		Phone:       "555-0101",
		AccountType: AccountTypeStaff,
	}

	patched := Patch{DisplayName: StringPtr("Ana G")}.ApplyTo(existing)

	assert.Equal(t, "Ana G", patched.DisplayName)
	assert.Equal(t, "555-0101", patched.Phone)
	assert.Equal(t, AccountTypeStaff, patched.AccountType)
}

func TestApplyToCanClearWithExplicitEmpty(t *testing.T) {
	existing := Record{Gender: "female"}

	patched := Patch{Gender: StringPtr("")}.ApplyTo(existing)

	assert.Empty(t, patched.Gender, "an explicit empty value is a write, not an omission")
}

func TestNewRecordDefaultsAccountType(t *testing.T) {
	now := time.Now()

	record := NewRecord("subject-1", Patch{Phone: StringPtr("555-0101")}, now)

	assert.Equal(t, AccountTypeClient, record.AccountType)
	assert.Equal(t, now, record.CreatedAt)
	assert.Equal(t, "subject-1", record.SubjectID)
}

func TestAccountTypeValid(t *testing.T) {
	assert.True(t, AccountTypeClient.Valid())
	assert.True(t, AccountTypeStaff.Valid())
	assert.True(t, AccountTypeAdmin.Valid())
	assert.False(t, AccountType("root").Valid())
	assert.False(t, AccountType("").Valid())
}

func TestMissingRequiredFields(t *testing.T) {
	empty := Record{}
	assert.Equal(t, []string{"phone"}, empty.MissingRequiredFields(false))
	assert.Equal(t, []string{"phone", "gender", "birthDate"}, empty.MissingRequiredFields(true))

	withPhone := Record{Phone: "555-0101"}
	assert.Empty(t, withPhone.MissingRequiredFields(false))
	assert.Equal(t, []string{"gender", "birthDate"}, withPhone.MissingRequiredFields(true))

	full := Record{Phone: "555-0101", Gender: "female", BirthDate: "1990-04-01"}
	assert.Empty(t, full.MissingRequiredFields(true))
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Phone: StringPtr("555-0101")}.IsEmpty())
}
