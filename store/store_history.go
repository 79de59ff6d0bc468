package store

import (
	"context"
	"fmt"

	"github.com/osr-alliance/backend-lib-leadflow/storage"
)

var newestFirst = &storage.SelectOptions{Descending: true}

func (s *store) AddFollowUpHistory(ctx context.Context, h *FollowUpHistory) error {
	return translate(s.store.Insert(ctx, h), fmt.Sprintf("history of lead %d", h.LeadID))
}

func (s *store) ListFollowUpHistory(ctx context.Context, leadID int32) ([]FollowUpHistory, error) {
	history := []FollowUpHistory{}
	err := s.store.SelectAll(ctx, &FollowUpHistory{LeadID: leadID}, &history, FollowUpHistoryGetByLeadID, newestFirst)
	return history, translate(err, fmt.Sprintf("history of lead %d", leadID))
}

func (s *store) AddCallLog(ctx context.Context, c *CallLog) error {
	return translate(s.store.Insert(ctx, c), fmt.Sprintf("call log of lead %d", c.LeadID))
}

func (s *store) ListCallLogs(ctx context.Context, leadID int32) ([]CallLog, error) {
	logs := []CallLog{}
	err := s.store.SelectAll(ctx, &CallLog{LeadID: leadID}, &logs, CallLogsGetByLeadID, newestFirst)
	return logs, translate(err, fmt.Sprintf("call logs of lead %d", leadID))
}
