package auth

import (
	"slices"
	"strconv"
	"strings"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

// Authenticated fails with apierr.ErrSessionExpired when there is no session
func Authenticated(s *Session) error {
	if s == nil || s.Token == "" {
		return apierr.ErrSessionExpired
	}
	return nil
}

func RequireAdmin(s *Session) error {
	if err := Authenticated(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return apierr.ErrPermissionDenied
	}
	return nil
}

/*
OwnerForms is every way an assignee may name the session's user, lower cased: the email, the bare username (the
part before the @) and the user id. Lead lists match on the same forms.
*/
func OwnerForms(s *Session) []string {
	if s == nil {
		return nil
	}
	forms := []string{}
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if email != "" {
		forms = append(forms, email)
		if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
			forms = append(forms, local)
		}
	}
	if s.UserID != 0 {
		forms = append(forms, strconv.Itoa(int(s.UserID)))
	}
	return forms
}

// Owns reports whether assignee is one of the session user's OwnerForms, ignoring case & surrounding spaces
func Owns(s *Session, assignee *string) bool {
	if s == nil || assignee == nil {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(*assignee))
	if a == "" {
		return false
	}
	return slices.Contains(OwnerForms(s), a)
}

// CanViewLead is admin or assignee
func CanViewLead(s *Session, l store.Lead) error {
	return adminOrOwner(s, l.Assignee)
}

// CanEditLead is admin or assignee; only an admin may give the lead to someone else
func CanEditLead(s *Session, l store.Lead, changes store.LeadChanges) error {
	if err := adminOrOwner(s, l.Assignee); err != nil {
		return err
	}
	if !s.IsAdmin() && changes.ChangesAssignee(l) {
		return apierr.ErrPermissionDenied
	}
	return nil
}

func CanDeleteNote(s *Session, n store.StickyNote) error {
	if err := Authenticated(s); err != nil {
		return err
	}
	if n.UserID != s.UserID && !s.IsAdmin() {
		return apierr.ErrPermissionDenied
	}
	return nil
}

func adminOrOwner(s *Session, assignee *string) error {
	if err := Authenticated(s); err != nil {
		return err
	}
	if s.IsAdmin() || Owns(s, assignee) {
		return nil
	}
	return apierr.ErrPermissionDenied
}
