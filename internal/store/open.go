package store

import (
	"context"
	"fmt"

	"bibhub/pkg/database"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverJSON     = "json"
)

// Backend is a corpus store that also keeps the run log.
type Backend interface {
	Store
	RunLog
}

type Config struct {
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres json"`
	// Path is the SQLite file or the JSON snapshot.
	Path string `mapstructure:"path"`
	// URL is the Postgres connection string.
	URL string `mapstructure:"url" validate:"required_if=Driver postgres"`
}

// Open returns the backend selected by cfg.Driver, SQLite by default.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		dbCfg := database.DefaultConfig()
		if cfg.Path != "" {
			dbCfg.Path = cfg.Path
		}
		db, err := database.Open(dbCfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewSQLite(db), nil
	case DriverPostgres:
		return ConnectPostgres(ctx, cfg.URL)
	case DriverJSON:
		if cfg.Path == "" {
			return nil, fmt.Errorf("json store: path is required")
		}
		return OpenJSONFile(cfg.Path)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
