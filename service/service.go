/*
Package service is the boundary every caller goes through. Each call takes the acting *auth.Session and checks the
"admin or assigned user" policy before touching the store.
*/
package service

import (
	"context"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store  store.Store
	policy followup.Policy
	now    func() time.Time
	log    *logrus.Entry
}

func New(st store.Store, p followup.Policy) *Service {
	return &Service{
		store:  st,
		policy: p,
		now:    time.Now,
		log:    logrus.WithField("component", "service"),
	}
}

// CreateLead defaults the status & priority. An employee's lead is always assigned to the employee.
func (s *Service) CreateLead(ctx context.Context, sess *auth.Session, l *store.Lead) error {
	if err := auth.Authenticated(sess); err != nil {
		return err
	}

	l.LeadName = strings.TrimSpace(l.LeadName)
	if l.LeadName == "" {
		return apierr.Validation("lead name is required")
	}
	if l.Status == "" {
		l.Status = store.StatusNew
	}
	if l.Priority == "" {
		l.Priority = store.PriorityMedium
	}
	if !l.Status.Valid() {
		return apierr.Validation("status %q is not valid", l.Status)
	}
	if !l.Priority.Valid() {
		return apierr.Validation("priority %q is not valid", l.Priority)
	}

	if !sess.IsAdmin() {
		if l.Assignee != nil && !auth.Owns(sess, l.Assignee) {
			return apierr.ErrPermissionDenied
		}
		email := sess.Email
		l.Assignee = &email
	}

	// a new lead hasn't been reminded about anything
	l.OverdueReminderSent = false
	l.UpcomingReminderSent = false

	return s.store.CreateLead(ctx, l)
}

func (s *Service) GetLead(ctx context.Context, sess *auth.Session, id int32) (*store.Lead, error) {
	if err := auth.Authenticated(sess); err != nil {
		return nil, err
	}

	l, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewLead(sess, *l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListLeads is every lead for an admin and the caller's own leads otherwise
func (s *Service) ListLeads(ctx context.Context, sess *auth.Session, opts *storage.SelectOptions) ([]store.Lead, error) {
	if err := auth.Authenticated(sess); err != nil {
		return nil, err
	}
	if sess.IsAdmin() {
		return s.store.ListLeads(ctx, opts)
	}
	return s.store.ListLeadsByAssignee(ctx, auth.OwnerForms(sess), opts)
}

/*
UpdateLead applies changes and records them in the lead's follow-up history in one transaction. Moving the
follow-up date to another day clears both reminder flags so the new date gets its own reminders.
*/
func (s *Service) UpdateLead(ctx context.Context, sess *auth.Session, id int32, changes store.LeadChanges) (*store.Lead, error) {
	if err := auth.Authenticated(sess); err != nil {
		return nil, err
	}
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanEditLead(sess, *current, changes); err != nil {
		return nil, err
	}

	updated := changes.Apply(*current)
	reset := changes.ChangesDate(*current)
	if reset {
		updated.OverdueReminderSent = false
		updated.UpcomingReminderSent = false
	}

	h := &store.FollowUpHistory{
		LeadID:      id,
		Description: changes.Describe(*current),
		Notes:       changes.Notes,
		CreatedBy:   sess.Email,
	}
	if changes.Status != nil {
		st := string(*changes.Status)
		h.Status = &st
	}
	if changes.Priority != nil {
		p := string(*changes.Priority)
		h.Priority = &p
	}

	if err := s.store.UpdateLeadWithHistory(ctx, &updated, reset, h); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"lead_id":         id,
		"by":              sess.Email,
		"reminders_reset": reset,
	}).Info(h.Description)

	return &updated, nil
}
