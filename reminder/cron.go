package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron runs the scheduler on a cron spec. A tick that fires while the previous run is still going is skipped.
type Cron struct {
	cron    *cron.Cron
	s       *Scheduler
	timeout time.Duration
	log     *logrus.Entry

	mu   sync.Mutex
	last *Summary
}

// NewCron parses spec in loc (nil is UTC); each run gets timeout, 0 meaning no limit
func NewCron(s *Scheduler, spec string, loc *time.Location, timeout time.Duration) (*Cron, error) {
	if loc == nil {
		loc = time.UTC
	}

	logger := cron.PrintfLogger(s.log)
	c := &Cron{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		s:       s,
		timeout: timeout,
		log:     s.log.WithField("cron", spec),
	}

	if _, err := c.cron.AddFunc(spec, c.tick); err != nil {
		return nil, fmt.Errorf("reminder cron spec %q: %w", spec, err)
	}
	return c, nil
}

func (c *Cron) tick() {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sum := c.s.Run(ctx)

	c.mu.Lock()
	c.last = &sum
	c.mu.Unlock()
}

func (c *Cron) Start() {
	c.log.Info("reminder cron started")
	c.cron.Start()
}

// Stop stops new ticks and waits for a running pass to finish or ctx to end
func (c *Cron) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		c.log.Info("reminder cron stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Last is the summary of the most recent scheduled run
func (c *Cron) Last() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Summary{}, false
	}
	return *c.last, true
}
