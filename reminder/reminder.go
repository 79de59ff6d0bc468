/*
Package reminder runs the follow-up reminder pass: find the leads whose follow-up is overdue or a few days out
and the sticky notes that are due, email each one once and record that it was sent.

A run is at-least-once. The sent flag is only written after the mail provider accepted the message, so a
failure between the two sends the reminder again on the next run; a failed send is retried the same way.
*/
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/mailer"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Store is the part of store.Store a run needs
type Store interface {
	ScanLeads(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.Lead, error)
	ScanStickyNotes(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]store.StickyNote, error)
	ActiveAdmins(ctx context.Context) ([]store.User, error)
	GetLead(ctx context.Context, id int32) (*store.Lead, error)
	MarkLeadReminderSent(ctx context.Context, id int32, sentFor *time.Time, kind store.ReminderKind) (*store.Lead, error)
	MarkStickyNoteSent(ctx context.Context, id int32) (*store.StickyNote, error)
}

var _ Store = (store.Store)(nil)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type Config struct {
	Policy followup.Policy

	// AssigneeDomain is appended to assignees stored without an @
	AssigneeDomain string
	From           string
	Concurrency    int
	DryRun         bool
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Counts of one reminder kind. A record whose mail went out but whose flag wasn't saved is in both Sent and
// FlagErrors.
type Counts struct {
	Candidates int `json:"candidates"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	FlagErrors int `json:"flag_errors"`
	Skipped    int `json:"skipped"`
}

func (c Counts) clean() bool {
	return c.Failed == 0 && c.FlagErrors == 0
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSendFailed
	outcomeFlagFailed
	outcomeSkipped
)

func (c *Counts) add(o outcome) {
	switch o {
	case outcomeSent:
		c.Sent++
	case outcomeSendFailed:
		c.Failed++
	case outcomeFlagFailed:
		c.Sent++
		c.FlagErrors++
	case outcomeSkipped:
		c.Skipped++
	}
}

type Summary struct {
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Overdue    Counts    `json:"overdue"`
	Upcoming   Counts    `json:"upcoming"`
	Notes      Counts    `json:"notes"`
	Error      string    `json:"error,omitempty"`
}

type Option func(s *Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Scheduler) { s.log = l }
}

type Scheduler struct {
	store   Store
	mailer  mailer.Mailer
	conf    Config
	clock   Clock
	metrics *Metrics
	log     *logrus.Entry
}

func New(st Store, m mailer.Mailer, conf Config, opts ...Option) *Scheduler {
	def := followup.DefaultPolicy()
	if conf.Policy.Columns == (followup.Columns{}) {
		conf.Policy.Columns = def.Columns
	}
	if conf.Policy.UpcomingWindowDays <= 0 {
		conf.Policy.UpcomingWindowDays = def.UpcomingWindowDays
	}

	s := &Scheduler{
		store:  st,
		mailer: m,
		conf:   conf,
		clock:  ClockFunc(time.Now),
		log:    logrus.WithField("component", "reminder"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type candidates struct {
	overdue  []store.Lead
	upcoming []store.Lead
	notes    []store.StickyNote
	admins   []store.User
}

// Run does one pass. It only fails as a whole when a candidate query fails, in which case nothing is sent;
// every per record failure is logged & counted and the run carries on.
func (s *Scheduler) Run(ctx context.Context) Summary {
	at := s.clock.Now()
	w := followup.NewWindow(at, s.conf.Policy)
	log := s.log.WithField("today", w.Today.Format(store.DateLayout))

	sum := Summary{StartedAt: at, DryRun: s.conf.DryRun}
	start := time.Now()
	defer func() {
		s.metrics.recordRun(sum.Status, time.Since(start))
	}()

	c, err := s.candidates(ctx, w)
	if err != nil {
		log.WithError(err).Error("reminder run failed: could not load candidates")
		sum.Status = StatusFailed
		sum.Error = err.Error()
		sum.FinishedAt = s.clock.Now()
		return sum
	}

	overdue, upcoming, dropped := w.Partition(c.overdue, c.upcoming)
	if len(dropped) > 0 {
		log.WithField("lead_ids", dropped).Debug("dropped leads that no longer match their reminder window")
	}
	notes := make([]store.StickyNote, 0, len(c.notes))
	for _, n := range c.notes {
		if w.NoteDue(n) {
			notes = append(notes, n)
		}
	}
	admins := s.adminAddresses(log, c.admins)

	sum.Overdue.Candidates = len(overdue)
	sum.Upcoming.Candidates = len(upcoming)
	sum.Notes.Candidates = len(notes)

	var mu sync.Mutex
	record := func(counts *Counts, kind store.ReminderKind, o outcome) {
		mu.Lock()
		defer mu.Unlock()
		counts.add(o)
		s.metrics.record(kind, o)
	}

	g := errgroup.Group{}
	g.SetLimit(s.conf.concurrency())

	for _, l := range overdue {
		l := l // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			record(&sum.Overdue, store.ReminderOverdue, s.sendLead(ctx, log, w, l, store.ReminderOverdue, admins))
			return nil
		})
	}
	for _, l := range upcoming {
		l := l // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			record(&sum.Upcoming, store.ReminderUpcoming, s.sendLead(ctx, log, w, l, store.ReminderUpcoming, admins))
			return nil
		})
	}
	for _, n := range notes {
		n := n // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			record(&sum.Notes, store.ReminderNote, s.sendNote(ctx, log, n))
			return nil
		})
	}
	_ = g.Wait()

	sum.Status = StatusSuccess
	if !sum.Overdue.clean() || !sum.Upcoming.clean() || !sum.Notes.clean() {
		sum.Status = StatusPartial
	}
	sum.FinishedAt = s.clock.Now()

	log.WithFields(logrus.Fields{
		"status":   sum.Status,
		"overdue":  sum.Overdue,
		"upcoming": sum.Upcoming,
		"notes":    sum.Notes,
	}).Info("reminder run finished")

	return sum
}

// candidates runs the four reads concurrently; the first error cancels the rest
func (s *Scheduler) candidates(ctx context.Context, w followup.Window) (*candidates, error) {
	c := &candidates{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		c.overdue, err = s.store.ScanLeads(gctx, w.OverdueFilter(), nil)
		if err != nil {
			return fmt.Errorf("overdue leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		c.upcoming, err = s.store.ScanLeads(gctx, w.UpcomingFilter(), nil)
		if err != nil {
			return fmt.Errorf("upcoming leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		c.notes, err = s.store.ScanStickyNotes(gctx, w.NotesFilter(), nil)
		if err != nil {
			return fmt.Errorf("due sticky notes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		c.admins, err = s.store.ActiveAdmins(gctx)
		if err != nil {
			return fmt.Errorf("active admins: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Scheduler) adminAddresses(log *logrus.Entry, admins []store.User) []string {
	out := make([]string, 0, len(admins))
	for _, a := range admins {
		addr, err := NormalizeAddress(a.Email, "")
		if err != nil {
			log.WithError(err).WithField("user_id", a.ID).Warn("admin left off reminders: unusable email")
			continue
		}
		out = append(out, addr)
	}
	return out
}

func (s *Scheduler) sendLead(ctx context.Context, log *logrus.Entry, w followup.Window, l store.Lead, kind store.ReminderKind, admins []string) outcome {
	log = log.WithFields(logrus.Fields{"lead_id": l.ID, "kind": kind})

	r, err := leadRecipients(l, admins, s.conf.AssigneeDomain)
	if err != nil {
		log.WithError(err).WithField("assignee", l.AssigneeOrEmpty()).Warn("lead reminder skipped: no usable assignee")
		return outcomeSkipped
	}

	msg := leadMessage(kind, l, w, r, s.conf.From)
	return s.deliver(ctx, log.WithField("recipients", r.all()), msg, func(ctx context.Context) error {
		_, err := s.store.MarkLeadReminderSent(ctx, l.ID, l.NextFollowUpDate, kind)
		if errors.Is(err, store.ErrReminderStale) {
			log.Info("follow-up date changed during the run; flag left for the new date")
			return nil
		}
		return err
	})
}

func (s *Scheduler) sendNote(ctx context.Context, log *logrus.Entry, n store.StickyNote) outcome {
	log = log.WithFields(logrus.Fields{"note_id": n.ID, "kind": store.ReminderNote})

	r, err := noteRecipients(n, s.conf.AssigneeDomain)
	if err != nil {
		log.WithError(err).Warn("sticky note reminder skipped: no usable email")
		return outcomeSkipped
	}

	var linked *store.Lead
	if n.LeadID != nil {
		linked, err = s.store.GetLead(ctx, *n.LeadID)
		if err != nil {
			log.WithError(err).WithField("lead_id", *n.LeadID).Warn("linked lead not loaded; sending without it")
			linked = nil
		}
	}

	msg := noteMessage(n, linked, r, s.conf.From, s.conf.Policy.Location)
	return s.deliver(ctx, log.WithField("recipients", r.all()), msg, func(ctx context.Context) error {
		_, err := s.store.MarkStickyNoteSent(ctx, n.ID)
		return err
	})
}

func (s *Scheduler) deliver(ctx context.Context, log *logrus.Entry, msg mailer.Message, mark func(context.Context) error) outcome {
	if s.conf.DryRun {
		log.WithField("subject", msg.Subject).Info("dry run: reminder not sent")
		return outcomeSkipped
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).Error("failed to send reminder")
		return outcomeSendFailed
	}

	// the mail is out; a cancelled run must not keep the flag from being saved
	if err := mark(context.WithoutCancel(ctx)); err != nil {
		log.WithError(err).Error("reminder sent but its flag was not saved; it will be sent again")
		return outcomeFlagFailed
	}

	log.Info("reminder sent")
	return outcomeSent
}
