package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mariyask04/Clinic-Management/internal/config"
	"github.com/mariyask04/Clinic-Management/internal/domain/billing"
	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/domain/prescription"
	"github.com/mariyask04/Clinic-Management/internal/domain/sequence"
	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
	"github.com/mariyask04/Clinic-Management/internal/platform/db"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

// stores bundles the repositories of one storage backend.
type stores struct {
	sequences     sequence.Repository
	patients      patient.Directory
	visits        visit.Repository
	prescriptions prescription.Repository
	bills         billing.Repository
	tx            prescription.Transactor
	probe         db.Probe
	close         func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			ApplicationName: "clinic-server",
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			sequences:     sequence.NewRepo(pool),
			patients:      patient.NewRepo(pool),
			visits:        visit.NewRepo(pool),
			prescriptions: prescription.NewRepo(pool),
			bills:         billing.NewRepo(pool),
			tx:            db.NewTxRunner(pool),
			probe:         db.PoolProbe(pool),
			close:         pool.Close,
		}, nil

	case config.DriverSQLite:
		sqlDB, err := sqlitedb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			sequences:     sequence.NewSQLiteRepo(sqlDB),
			patients:      patient.NewSQLiteRepo(sqlDB),
			visits:        visit.NewSQLiteRepo(sqlDB),
			prescriptions: prescription.NewSQLiteRepo(sqlDB),
			bills:         billing.NewSQLiteRepo(sqlDB),
			tx:            sqlitedb.NewTxRunner(sqlDB),
			probe:         sqliteProbe(sqlDB),
			close:         func() { sqlDB.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func sqliteProbe(sqlDB *sql.DB) db.Probe {
	return db.Probe{
		Driver: "sqlite",
		Ping:   sqlDB.PingContext,
		Stats: func() interface{} {
			s := sqlDB.Stats()
			return map[string]interface{}{
				"open_connections": s.OpenConnections,
				"in_use":           s.InUse,
				"idle":             s.Idle,
				"wait_count":       s.WaitCount,
			}
		},
	}
}
