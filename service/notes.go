package service

import (
	"context"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

const defaultNoteColor = "yellow"

type NoteInput struct {
	Content    string     `json:"content"`
	Color      string     `json:"color"`
	ReminderAt *time.Time `json:"reminder_at"`
	LeadID     *int32     `json:"lead_id"`
}

// CreateStickyNote makes a note owned by the caller; the reminder goes to the caller's current email
func (s *Service) CreateStickyNote(ctx context.Context, sess *auth.Session, in NoteInput) (*store.StickyNote, error) {
	if err := auth.Authenticated(sess); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apierr.Validation("note content is required")
	}
	if in.ReminderAt == nil || in.ReminderAt.IsZero() {
		return nil, apierr.Validation("note reminder time is required")
	}
	if in.LeadID != nil {
		if _, err := s.GetLead(ctx, sess, *in.LeadID); err != nil {
			return nil, err
		}
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = defaultNoteColor
	}

	n := &store.StickyNote{
		UserID:     sess.UserID,
		Email:      sess.Email,
		LeadID:     in.LeadID,
		Content:    content,
		Color:      color,
		ReminderAt: in.ReminderAt.UTC(),
	}
	if err := s.store.CreateStickyNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListStickyNotes(ctx context.Context, sess *auth.Session) ([]store.StickyNote, error) {
	if err := auth.Authenticated(sess); err != nil {
		return nil, err
	}
	return s.store.ListStickyNotes(ctx, sess.UserID)
}

func (s *Service) DeleteStickyNote(ctx context.Context, sess *auth.Session, id int32) error {
	if err := auth.Authenticated(sess); err != nil {
		return err
	}

	n, err := s.store.GetStickyNote(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CanDeleteNote(sess, *n); err != nil {
		return err
	}

	_, err = s.store.DeleteStickyNote(ctx, id)
	return err
}
