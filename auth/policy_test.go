package auth

import (
	"testing"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

var (
	admin    = &Session{Token: "t1", UserID: 2, Email: "boss@example.com", Role: store.RoleAdmin}
	employee = &Session{Token: "t2", UserID: 1, Email: "Ana@Example.com", Role: store.RoleEmployee}
)

func TestOwns(t *testing.T) {
	tests := []struct {
		assignee *string
		want     bool
	}{
		{str("ana@example.com"), true},
		{str(" ANA "), true},
		{str("1"), true},
		{str("bob@example.com"), false},
		{str("anabel"), false},
		{str(""), false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Owns(employee, tt.assignee), "assignee %v", tt.assignee)
	}
	assert.False(t, Owns(nil, str("ana@example.com")))
}

func TestOwnerForms(t *testing.T) {
	assert.Equal(t, []string{"ana@example.com", "ana", "1"}, OwnerForms(employee))
	assert.Equal(t, []string{"7"}, OwnerForms(&Session{Token: "t", UserID: 7}))
	assert.Nil(t, OwnerForms(nil))

	for _, f := range OwnerForms(employee) {
		assert.True(t, Owns(employee, str(f)), f)
	}
}

func TestLeadPolicy(t *testing.T) {
	mine := store.Lead{ID: 1, Assignee: str("ana@example.com")}
	theirs := store.Lead{ID: 2, Assignee: str("bob@example.com")}
	unassigned := store.Lead{ID: 3}
	won := store.StatusWon

	assert.NoError(t, CanViewLead(employee, mine))
	assert.ErrorIs(t, CanViewLead(employee, theirs), apierr.ErrPermissionDenied)
	assert.ErrorIs(t, CanViewLead(employee, unassigned), apierr.ErrPermissionDenied)
	assert.NoError(t, CanViewLead(admin, theirs))
	assert.ErrorIs(t, CanViewLead(nil, mine), apierr.ErrSessionExpired)

	assert.NoError(t, CanEditLead(employee, mine, store.LeadChanges{Status: &won}))
	assert.ErrorIs(t, CanEditLead(employee, theirs, store.LeadChanges{Status: &won}), apierr.ErrPermissionDenied)
	assert.ErrorIs(t, CanEditLead(employee, mine, store.LeadChanges{Assignee: str("bob@example.com")}), apierr.ErrPermissionDenied)
	assert.ErrorIs(t, CanEditLead(employee, mine, store.LeadChanges{ClearAssignee: true}), apierr.ErrPermissionDenied)
	assert.NoError(t, CanEditLead(employee, mine, store.LeadChanges{Assignee: str("ana@example.com")}), "same assignee is no reassignment")
	assert.NoError(t, CanEditLead(admin, theirs, store.LeadChanges{Assignee: str("ana@example.com")}))
}

func TestAdminAndNotePolicy(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(employee), apierr.ErrPermissionDenied)
	assert.ErrorIs(t, RequireAdmin(&Session{}), apierr.ErrSessionExpired)

	note := store.StickyNote{ID: 9, UserID: 1}
	assert.NoError(t, CanDeleteNote(employee, note))
	assert.NoError(t, CanDeleteNote(admin, note))
	assert.ErrorIs(t, CanDeleteNote(&Session{Token: "t3", UserID: 5, Role: store.RoleEmployee}, note), apierr.ErrPermissionDenied)
}
