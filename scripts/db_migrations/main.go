package main

import (
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/kv"
)

// Brings every sqlite-backed slot file named by the environment up to the
// current schema. Memory and bolt slots have no schema and are skipped.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("LoadDotEnv")
		return
	}

	env, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("ProcessEnvironmentVariables")
		return
	}

	targets := map[string]string{}
	if env.LocalDriver == config.DriverSQLite {
		targets["client"] = env.LocalPath
	}
	if env.ServerLocalDriver == config.DriverSQLite {
		targets["server"] = env.ServerLocalPath
	}
	if len(targets) == 0 {
		logrus.Info("No sqlite slots configured")
		return
	}

	for name, path := range targets {
		db, err := kv.OpenSQLiteDB(path)
		if err != nil {
			logrus.WithError(err).WithField("path", path).Fatal("kv.OpenSQLiteDB")
			return
		}

		preMigrationVersion, postMigrationVersion, err := kv.MigrateSQLite(db)
		_ = db.Close()
		if err != nil {
			logrus.WithError(err).WithField("path", path).Fatal("kv.MigrateSQLite")
			return
		}

		logrus.WithFields(logrus.Fields{
			"slot":                 name,
			"path":                 path,
			"preMigrationVersion":  preMigrationVersion,
			"postMigrationVersion": postMigrationVersion,
		}).Info("Migration status")
	}
}
