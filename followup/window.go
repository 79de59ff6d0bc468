package followup

import (
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

/*
Window is the reference frame of one reminder run; it is captured once so every candidate set is computed
against the same instant.

	overdue:  overdue flag false AND date < Today
	upcoming: upcoming flag false AND Target <= date < TargetEnd
	notes:    sent flag false AND reminder_at <= Now

Closed leads are in neither set.
*/
type Window struct {
	Now       time.Time
	Today     time.Time
	Tomorrow  time.Time
	Target    time.Time // Today + UpcomingWindowDays
	TargetEnd time.Time // the day after Target

	policy Policy
}

func NewWindow(at time.Time, p Policy) Window {
	today := p.StartOfDay(at)
	target := p.AddDays(today, p.UpcomingWindowDays)
	return Window{
		Now:       at,
		Today:     today,
		Tomorrow:  p.AddDays(today, 1),
		Target:    target,
		TargetEnd: p.AddDays(target, 1),
		policy:    p,
	}
}

func (w Window) Policy() Policy {
	return w.policy
}

func closedStatuses() []string {
	s := make([]string, 0, len(store.ClosedStatuses))
	for _, c := range store.ClosedStatuses {
		s = append(s, string(c))
	}
	return s
}

// dates are bound as YYYY-MM-DD strings so postgres compares them as dates whatever the session time zone is
func dateParam(d time.Time) string {
	return d.Format(store.DateLayout)
}

func (w Window) OverdueFilter() *storage.Filter {
	c := w.policy.Columns
	return storage.And(
		storage.Eq(c.OverdueFlag, false),
		storage.NotNull(c.Date),
		storage.Lt(c.Date, dateParam(w.Today)),
		storage.NotIn(c.Status, closedStatuses()),
	)
}

func (w Window) UpcomingFilter() *storage.Filter {
	c := w.policy.Columns
	return storage.And(
		storage.Eq(c.UpcomingFlag, false),
		storage.Gte(c.Date, dateParam(w.Target)),
		storage.Lt(c.Date, dateParam(w.TargetEnd)),
		storage.NotIn(c.Status, closedStatuses()),
	)
}

func (w Window) NotesFilter() *storage.Filter {
	c := w.policy.Columns
	return storage.And(
		storage.Eq(c.NoteSentFlag, false),
		storage.Lte(c.NoteReminderAt, w.Now),
	)
}

// IsOverdue is OverdueFilter for a lead already in memory
func (w Window) IsOverdue(l store.Lead) bool {
	if l.OverdueReminderSent || l.Status.Closed() || l.NextFollowUpDate == nil {
		return false
	}
	return w.policy.CalendarDate(*l.NextFollowUpDate).Before(w.Today)
}

// IsUpcoming is UpcomingFilter for a lead already in memory
func (w Window) IsUpcoming(l store.Lead) bool {
	if l.UpcomingReminderSent || l.Status.Closed() || l.NextFollowUpDate == nil {
		return false
	}
	d := w.policy.CalendarDate(*l.NextFollowUpDate)
	return !d.Before(w.Target) && d.Before(w.TargetEnd)
}

// NoteDue is NotesFilter for a note already in memory
func (w Window) NoteDue(n store.StickyNote) bool {
	return NoteDue(n, w.Now)
}

func NoteDue(n store.StickyNote, at time.Time) bool {
	return !n.IsReminderSent && !n.ReminderAt.After(at)
}

/*
Partition makes the two candidate sets disjoint. A lead in both (its row changed between the two scans) stays
overdue. Leads the scan returned that don't match in memory are dropped too, so a row that changed
between the query & the run can't slip through. dropped holds the ids of every lead removed.
*/
func (w Window) Partition(overdue, upcoming []store.Lead) (o []store.Lead, u []store.Lead, dropped []int32) {
	seen := map[int32]struct{}{}
	o = make([]store.Lead, 0, len(overdue))
	u = make([]store.Lead, 0, len(upcoming))

	for _, l := range overdue {
		if _, dup := seen[l.ID]; dup || !w.IsOverdue(l) {
			dropped = append(dropped, l.ID)
			continue
		}
		seen[l.ID] = struct{}{}
		o = append(o, l)
	}

	for _, l := range upcoming {
		if _, dup := seen[l.ID]; dup || !w.IsUpcoming(l) {
			dropped = append(dropped, l.ID)
			continue
		}
		seen[l.ID] = struct{}{}
		u = append(u, l)
	}

	return o, u, dropped
}
