package service

import (
	"context"
	"strings"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

func (s *Service) ListFollowUpHistory(ctx context.Context, sess *auth.Session, leadID int32) ([]store.FollowUpHistory, error) {
	if _, err := s.GetLead(ctx, sess, leadID); err != nil {
		return nil, err
	}
	return s.store.ListFollowUpHistory(ctx, leadID)
}

// AddCallLog needs the caller to be able to see the lead; Name defaults to the lead's contact person
func (s *Service) AddCallLog(ctx context.Context, sess *auth.Session, leadID int32, c *store.CallLog) error {
	l, err := s.GetLead(ctx, sess, leadID)
	if err != nil {
		return err
	}

	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		return apierr.Validation("call description is required")
	}
	if c.DurationMinutes != nil && *c.DurationMinutes < 0 {
		return apierr.Validation("call duration can't be negative")
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = l.ContactPerson
	}

	c.LeadID = leadID
	c.CreatedBy = sess.Email
	return s.store.AddCallLog(ctx, c)
}

func (s *Service) ListCallLogs(ctx context.Context, sess *auth.Session, leadID int32) ([]store.CallLog, error) {
	if _, err := s.GetLead(ctx, sess, leadID); err != nil {
		return nil, err
	}
	return s.store.ListCallLogs(ctx, leadID)
}
