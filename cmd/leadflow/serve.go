package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/api"
	"github.com/osr-alliance/backend-lib-leadflow/auth"
	"github.com/osr-alliance/backend-lib-leadflow/config"
	"github.com/osr-alliance/backend-lib-leadflow/reminder"
	"github.com/osr-alliance/backend-lib-leadflow/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd(conf func() *config.Config) *cobra.Command {
	var noCron bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the leadflow api & send reminders on the cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conf()
			ctx := cmd.Context()

			cn, err := createConns(ctx, c)
			if err != nil {
				return err
			}
			defer cn.Close()
			if cn.redis == nil {
				return errors.New("serve keeps sessions in redis; unset LEADFLOW_NO_CACHE")
			}

			st, err := cn.store(c)
			if err != nil {
				return err
			}
			policy, err := c.Policy()
			if err != nil {
				return err
			}
			scheduler, err := newScheduler(c, st, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}

			sessions := auth.NewSessionStore(cn.redis, c.ServiceName, c.SessionTTL)
			router := api.NewRouter(&api.Config{
				Service:         service.New(st, policy),
				Sessions:        auth.NewAuthenticator(st, sessions),
				Reminders:       scheduler,
				Metrics:         promhttp.Handler(),
				ReminderTimeout: c.ReminderTimeout,
			})

			var cron *reminder.Cron
			if !noCron {
				cron, err = reminder.NewCron(scheduler, c.CronSpec, policy.Location, c.ReminderTimeout)
				if err != nil {
					return err
				}
				cron.Start()
			}

			srv := &http.Server{
				Handler:      router,
				Addr:         c.ListenAddr,
				WriteTimeout: 15 * time.Second,
				ReadTimeout:  15 * time.Second,
			}
			// a triggered reminder run can take longer than a normal request
			if c.ReminderTimeout > srv.WriteTimeout {
				srv.WriteTimeout = c.ReminderTimeout + 5*time.Second
			}

			errc := make(chan error, 1)
			go func() {
				logrus.WithField("addr", c.ListenAddr).Info("leadflow api listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err = <-errc:
			case <-ctx.Done():
				logrus.Info("shutting down")
			}

			shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdown); serr != nil {
				logrus.WithError(serr).Warn("http shutdown")
			}
			if cron != nil {
				if cerr := cron.Stop(shutdown); cerr != nil {
					logrus.WithError(cerr).Warn("a reminder run was still going at shutdown")
				}
			}

			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noCron, "no-cron", false, "serve the api without the reminder cron")
	return cmd
}
