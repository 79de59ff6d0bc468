package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/osr-alliance/backend-lib-leadflow/config"
	"github.com/osr-alliance/backend-lib-leadflow/reminder"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newScheduler(c *config.Config, st store.Store, reg prometheus.Registerer) (*reminder.Scheduler, error) {
	p, err := c.Policy()
	if err != nil {
		return nil, err
	}
	m, err := c.Mailer(logrus.WithField("component", "mailer"))
	if err != nil {
		return nil, err
	}
	metrics, err := reminder.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	return reminder.New(st, m, reminder.Config{
		Policy:         p,
		AssigneeDomain: c.AssigneeDomain,
		From:           c.MailFrom,
		Concurrency:    c.Concurrency,
		DryRun:         c.DryRun,
	}, reminder.WithMetrics(metrics)), nil
}

// exitCode is 0 for a clean run, 2 when some reminders failed & 1 when the run failed
func exitCode(s reminder.Status) int {
	switch s {
	case reminder.StatusSuccess:
		return 0
	case reminder.StatusPartial:
		return 2
	}
	return 1
}

func remindCmd(conf func() *config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send one pass of follow-up & sticky note reminders and print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conf()
			if dryRun {
				c.DryRun = true
			}

			cn, err := createConns(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer cn.Close()

			st, err := cn.store(c)
			if err != nil {
				return err
			}
			s, err := newScheduler(c, st, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if c.ReminderTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.ReminderTimeout)
				defer cancel()
			}
			sum := s.Run(ctx)

			out, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if code := exitCode(sum.Status); code != 0 {
				return &exitError{code: code, msg: fmt.Sprintf("reminder run finished %s", sum.Status)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the reminders instead of sending them")
	return cmd
}
