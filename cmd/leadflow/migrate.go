package main

import (
	"github.com/osr-alliance/backend-lib-leadflow/config"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conf()
			c.NoCache = true

			cn, err := createConns(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer cn.Close()

			from, err := store.Migrate(cmd.Context(), cn.write)
			if err != nil {
				return err
			}
			logrus.WithField("from_version", from).Info("schema is up to date")
			return nil
		},
	}
}
