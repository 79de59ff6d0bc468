package service

import (
	"context"

	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

type Dashboard struct {
	TotalLeads int                        `json:"total_leads"`
	ByStatus   map[store.LeadStatus]int   `json:"by_status"`
	ByPriority map[store.LeadPriority]int `json:"by_priority"`
	FollowUps  followup.Counts            `json:"follow_ups"`
}

// Dashboard summarises the leads the caller can see
func (s *Service) Dashboard(ctx context.Context, sess *auth.Session) (*Dashboard, error) {
	leads, err := s.ListLeads(ctx, sess, nil)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalLeads: len(leads),
		ByStatus:   map[store.LeadStatus]int{},
		ByPriority: map[store.LeadPriority]int{},
		FollowUps:  followup.CountLeads(leads, s.now(), s.policy),
	}
	for _, st := range store.LeadStatuses {
		d.ByStatus[st] = 0
	}
	for _, l := range leads {
		d.ByStatus[l.Status]++
		d.ByPriority[l.Priority]++
	}
	return d, nil
}
