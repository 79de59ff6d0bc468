package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/osr-alliance/backend-lib-leadflow/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func main() {
	var conf *config.Config

	root := &cobra.Command{
		Use:           "leadflow",
		Short:         "Lead follow-ups, reminders & the leadflow api",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if err := c.SetupLogging(); err != nil {
				return err
			}
			conf = c
			return nil
		},
	}

	loaded := func() *config.Config { return conf }
	root.AddCommand(
		serveCmd(loaded),
		remindCmd(loaded),
		migrateCmd(loaded),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		var e *exitError
		if errors.As(err, &e) {
			if e.msg != "" {
				logrus.Error(e.msg)
			}
			os.Exit(e.code)
		}
		logrus.WithError(err).Error("leadflow failed")
		os.Exit(1)
	}
}
