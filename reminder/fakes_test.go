package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/mailer"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

// fakeStore answers every scan with all its rows; the scheduler narrows them in memory
type fakeStore struct {
	mu      sync.Mutex
	leads   map[int32]*store.Lead
	notes   map[int32]*store.StickyNote
	admins  []store.User
	scanErr error
	markErr map[int32]error
}

func newFakeStore(leads []store.Lead, notes []store.StickyNote, admins ...store.User) *fakeStore {
	f := &fakeStore{
		leads:   map[int32]*store.Lead{},
		notes:   map[int32]*store.StickyNote{},
		admins:  admins,
		markErr: map[int32]error{},
	}
	for i := range leads {
		l := leads[i]
		f.leads[l.ID] = &l
	}
	for i := range notes {
		n := notes[i]
		f.notes[n.ID] = &n
	}
	return f
}

func (f *fakeStore) ScanLeads(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := []store.Lead{}
	for _, l := range f.leads {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ScanStickyNotes(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.StickyNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.StickyNote{}
	for _, n := range f.notes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ActiveAdmins(ctx context.Context) ([]store.User, error) {
	return f.admins, nil
}

func (f *fakeStore) GetLead(ctx context.Context, id int32) (*store.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) MarkLeadReminderSent(ctx context.Context, id int32, sentFor *time.Time, kind store.ReminderKind) (*store.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markErr[id]; err != nil {
		return nil, err
	}
	l := f.leads[id]
	if !store.SameDate(l.NextFollowUpDate, sentFor) {
		return nil, store.ErrReminderStale
	}
	switch kind {
	case store.ReminderOverdue:
		l.OverdueReminderSent = true
	case store.ReminderUpcoming:
		l.UpcomingReminderSent = true
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) MarkStickyNoteSent(ctx context.Context, id int32) (*store.StickyNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.notes[id]
	n.IsReminderSent = true
	cp := *n
	return &cp, nil
}

// reschedule moves a lead & clears its flags the way an edit through the api does
func (f *fakeStore) reschedule(id int32, to time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.leads[id]
	l.NextFollowUpDate = &to
	l.OverdueReminderSent = false
	l.UpcomingReminderSent = false
}

func (f *fakeStore) lead(id int32) store.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.leads[id]
}

func (f *fakeStore) note(id int32) store.StickyNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.notes[id]
}

// fakeMailer fails any message whose first recipient is in fail; beforeSend runs outside its lock
type fakeMailer struct {
	mu         sync.Mutex
	sent       []mailer.Message
	fail       map[string]error
	beforeSend func(mailer.Message)
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.beforeSend != nil {
		m.beforeSend(msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[msg.To[0]]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, s := range m.sent {
		out = append(out, s.Subject)
	}
	return out
}

func (m *fakeMailer) bySubject(subject string) (mailer.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sent {
		if s.Subject == subject {
			return s, true
		}
	}
	return mailer.Message{}, false
}

var runAt = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func day(s string) *time.Time {
	d, err := time.Parse(store.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func newLead(id int32, name, assignee, date string) store.Lead {
	l := store.Lead{
		ID:       id,
		LeadName: name,
		Status:   store.StatusContacted,
		Priority: store.PriorityHigh,
	}
	if assignee != "" {
		l.Assignee = &assignee
	}
	if date != "" {
		l.NextFollowUpDate = day(date)
	}
	return l
}

func newScheduler(st Store, m mailer.Mailer, conf Config, opts ...Option) *Scheduler {
	if conf.From == "" {
		conf.From = "LeadFlow <reminders@example.com>"
	}
	opts = append([]Option{WithClock(ClockFunc(func() time.Time { return runAt }))}, opts...)
	return New(st, m, conf, opts...)
}
