// Package storetest is an in-memory store.Store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

var _ store.Store = (*Mem)(nil)

// Mem keeps rows in maps & slices. Its scans ignore the filter and return every row.
type Mem struct {
	mu      sync.Mutex
	nextID  int32
	Leads   map[int32]store.Lead
	Users   []store.User
	Notes   map[int32]store.StickyNote
	History []store.FollowUpHistory
	Calls   []store.CallLog

	// UpdateErr fails UpdateLeadWithHistory before anything is written
	UpdateErr error
	// Cleared lists the leads whose reminder flags an update cleared
	Cleared []int32
}

func New(leads ...store.Lead) *Mem {
	m := &Mem{
		nextID: 100,
		Leads:  map[int32]store.Lead{},
		Notes:  map[int32]store.StickyNote{},
	}
	for _, l := range leads {
		m.Leads[l.ID] = l
	}
	return m
}

func (m *Mem) id() int32 {
	m.nextID++
	return m.nextID
}

func (m *Mem) sortedLeads(keep func(store.Lead) bool) []store.Lead {
	out := []store.Lead{}
	for _, l := range m.Leads {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Mem) CreateLead(ctx context.Context, l *store.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.id()
	m.Leads[l.ID] = *l
	return nil
}

func (m *Mem) GetLead(ctx context.Context, id int32) (*store.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Leads[id]
	if !ok {
		return nil, fmt.Errorf("lead %d: %w", id, apierr.ErrNotFound)
	}
	return &l, nil
}

func (m *Mem) ListLeads(ctx context.Context, opts *storage.SelectOptions) ([]store.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLeads(func(store.Lead) bool { return true }), nil
}

// ListLeadsByAssignee matches like the sql: lower cased & trimmed assignee in the lower cased forms
func (m *Mem) ListLeadsByAssignee(ctx context.Context, assignees []string, opts *storage.SelectOptions) ([]store.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLeads(func(l store.Lead) bool {
		if l.Assignee == nil {
			return false
		}
		a := strings.ToLower(strings.TrimSpace(*l.Assignee))
		for _, want := range assignees {
			if a == strings.ToLower(strings.TrimSpace(want)) {
				return true
			}
		}
		return false
	}), nil
}

func (m *Mem) UpdateLeadWithHistory(ctx context.Context, l *store.Lead, clearReminders bool, h *store.FollowUpHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if clearReminders {
		l.OverdueReminderSent = false
		l.UpcomingReminderSent = false
		m.Cleared = append(m.Cleared, l.ID)
	}
	m.Leads[l.ID] = *l
	if h != nil {
		h.ID = m.id()
		h.LeadID = l.ID
		m.History = append(m.History, *h)
	}
	return nil
}

func (m *Mem) MarkLeadReminderSent(ctx context.Context, id int32, sentFor *time.Time, kind store.ReminderKind) (*store.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Leads[id]
	if !ok || sentFor == nil || !store.SameDate(l.NextFollowUpDate, sentFor) {
		return nil, store.ErrReminderStale
	}
	switch kind {
	case store.ReminderOverdue:
		l.OverdueReminderSent = true
	case store.ReminderUpcoming:
		l.UpcomingReminderSent = true
	default:
		return nil, fmt.Errorf("leads have no %s reminder flag", kind)
	}
	m.Leads[id] = l
	return &l, nil
}

func (m *Mem) ScanLeads(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.Lead, error) {
	return m.ListLeads(ctx, opts)
}

func (m *Mem) GetUserByID(ctx context.Context, id int32) (*store.User, error) {
	for _, u := range m.Users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apierr.ErrNotFound
}

func (m *Mem) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apierr.ErrNotFound
}

func (m *Mem) ActiveAdmins(ctx context.Context) ([]store.User, error) {
	out := []store.User{}
	for _, u := range m.Users {
		if u.IsAdmin() && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *Mem) CreateStickyNote(ctx context.Context, n *store.StickyNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	m.Notes[n.ID] = *n
	return nil
}

func (m *Mem) GetStickyNote(ctx context.Context, id int32) (*store.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.Notes[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	return &n, nil
}

func (m *Mem) ListStickyNotes(ctx context.Context, userID int32) ([]store.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.StickyNote{}
	for _, n := range m.Notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Mem) DeleteStickyNote(ctx context.Context, id int32) (*store.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.Notes[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	delete(m.Notes, id)
	return &n, nil
}

func (m *Mem) ScanStickyNotes(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.StickyNote{}
	for _, n := range m.Notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Mem) MarkStickyNoteSent(ctx context.Context, id int32) (*store.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.Notes[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	n.IsReminderSent = true
	m.Notes[id] = n
	return &n, nil
}

func (m *Mem) AddFollowUpHistory(ctx context.Context, h *store.FollowUpHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.id()
	m.History = append(m.History, *h)
	return nil
}

func (m *Mem) ListFollowUpHistory(ctx context.Context, leadID int32) ([]store.FollowUpHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.FollowUpHistory{}
	for _, h := range m.History {
		if h.LeadID == leadID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Mem) AddCallLog(ctx context.Context, c *store.CallLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.Calls = append(m.Calls, *c)
	return nil
}

func (m *Mem) ListCallLogs(ctx context.Context, leadID int32) ([]store.CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.CallLog{}
	for _, c := range m.Calls {
		if c.LeadID == leadID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Put replaces or adds a lead
func (m *Mem) Put(l store.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Leads[l.ID] = l
}

func (m *Mem) ClearedLeads() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int32{}, m.Cleared...)
}
