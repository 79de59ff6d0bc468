package store

import (
	"context"
	"fmt"

	"github.com/osr-alliance/backend-lib-leadflow/storage"
)

func (s *store) CreateStickyNote(ctx context.Context, note *StickyNote) error {
	return translate(s.store.Insert(ctx, note), "sticky note")
}

func (s *store) GetStickyNote(ctx context.Context, id int32) (*StickyNote, error) {
	n := &StickyNote{
		ID: id,
	}
	err := s.store.Select(ctx, n, StickyNotesGetByID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("sticky note %d", id))
	}
	return n, nil
}

func (s *store) ListStickyNotes(ctx context.Context, userID int32) ([]StickyNote, error) {
	notes := []StickyNote{}
	err := s.store.SelectAll(ctx, &StickyNote{UserID: userID}, &notes, StickyNotesGetByUserID, newestFirst)
	return notes, translate(err, fmt.Sprintf("sticky notes of user %d", userID))
}

// DeleteStickyNote returns the deleted note
func (s *store) DeleteStickyNote(ctx context.Context, id int32) (*StickyNote, error) {
	n := &StickyNote{
		ID: id,
	}
	err := s.store.Delete(ctx, n)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("sticky note %d", id))
	}
	return n, nil
}

func (s *store) ScanStickyNotes(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]StickyNote, error) {
	notes := []StickyNote{}
	err := s.store.Scan(ctx, &StickyNote{}, &notes, filter, opts)
	return notes, translate(err, "scan sticky notes")
}

func (s *store) MarkStickyNoteSent(ctx context.Context, id int32) (*StickyNote, error) {
	n := &StickyNote{
		ID: id,
	}
	err := s.store.Exec(ctx, n, StickyNotesMarkSent)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("sticky note %d", id))
	}
	return n, nil
}
