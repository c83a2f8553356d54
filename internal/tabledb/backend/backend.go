// Package backend opens the tabledb.DB selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/tabledb"
	"github.com/dgallion1/planreport/internal/tabledb/restdb"
	"github.com/dgallion1/planreport/internal/tabledb/sqldb"
)

// Open connects to the configured backend. The returned close function
// releases it.
func Open(ctx context.Context, cfg config.Config) (tabledb.DB, func() error, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite, config.DriverPostgres:
		db, err := sqldb.Open(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
		}
		return db, db.Close, nil
	case config.DriverREST:
		c := restdb.NewClient(cfg.RESTURL, cfg.RESTAPIKey)
		return c, func() error { c.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
