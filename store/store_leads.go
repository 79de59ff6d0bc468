package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/storage"
)

func (s *store) CreateLead(ctx context.Context, lead *Lead) error {
	return translate(s.store.Insert(ctx, lead), "lead")
}

func (s *store) GetLead(ctx context.Context, id int32) (*Lead, error) {
	l := &Lead{
		ID: id,
	}
	err := s.store.Select(ctx, l, LeadsGetByID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("lead %d", id))
	}
	return l, nil
}

func (s *store) ListLeads(ctx context.Context, opts *storage.SelectOptions) ([]Lead, error) {
	leads := []Lead{}
	err := s.store.SelectAll(ctx, &Lead{}, &leads, LeadsGetAll, orDefault(opts))
	return leads, translate(err, "leads")
}

func (s *store) ListLeadsByAssignee(ctx context.Context, assignees []string, opts *storage.SelectOptions) ([]Lead, error) {
	leads := []Lead{}
	if len(assignees) == 0 {
		return leads, nil
	}

	// an assignee may be stored as an email, a bare username or a user id so this is a scan, not a cached list
	err := s.store.Scan(ctx, &Lead{}, &leads, storage.InFold("assignee", assignees), orDefault(opts))
	return leads, translate(err, "leads of "+strings.Join(assignees, "|"))
}

func (s *store) UpdateLeadWithHistory(ctx context.Context, lead *Lead, clearReminders bool, history *FollowUpHistory) error {
	what := fmt.Sprintf("lead %d", lead.ID)

	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return translate(err, what)
	}
	defer tx.TXRollback()

	err = tx.TXUpdate(ctx, lead)
	if err != nil {
		return translate(err, what)
	}

	if clearReminders {
		err = tx.TXExec(ctx, lead, LeadsClearReminders)
		if err != nil {
			return translate(err, what)
		}
	}

	if history != nil {
		history.LeadID = lead.ID
		err = tx.TXInsert(ctx, history)
		if err != nil {
			return translate(err, "history of "+what)
		}
	}

	return translate(tx.TXEnd(ctx), what)
}

func (s *store) MarkLeadReminderSent(ctx context.Context, id int32, sentFor *time.Time, kind ReminderKind) (*Lead, error) {
	var statement string
	switch kind {
	case ReminderOverdue:
		statement = LeadsMarkOverdueSent
	case ReminderUpcoming:
		statement = LeadsMarkUpcomingSent
	default:
		return nil, fmt.Errorf("store: leads have no %s reminder flag", kind)
	}

	l := &Lead{
		ID:               id,
		NextFollowUpDate: sentFor,
	}
	err := s.store.Exec(ctx, l, statement)
	if errors.Is(err, storage.ErrNoRows) {
		// gone or rescheduled; the new date gets its own reminder
		return nil, fmt.Errorf("lead %d: %w", id, ErrReminderStale)
	}
	if err != nil {
		return nil, translate(err, fmt.Sprintf("lead %d", id))
	}
	return l, nil
}

func (s *store) ScanLeads(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]Lead, error) {
	leads := []Lead{}
	err := s.store.Scan(ctx, &Lead{}, &leads, filter, opts)
	return leads, translate(err, "scan leads")
}

func orDefault(opts *storage.SelectOptions) *storage.SelectOptions {
	if opts == nil {
		return fetchAll
	}
	return opts
}
