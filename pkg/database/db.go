// Package database opens the SQLite file backing the corpus and run log.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path string `mapstructure:"path"`
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// DefaultConfig reads BIBHUB_DB_PATH, falling back to ~/.bibhub/bibhub.db.
func DefaultConfig() Config {
	cfg := Config{BusyTimeout: 5 * time.Second}
	if p := os.Getenv("BIBHUB_DB_PATH"); p != "" {
		cfg.Path = p
		return cfg
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	cfg.Path = filepath.Join(home, ".bibhub", "bibhub.db")
	return cfg
}

// dsn enables WAL so API readers are not blocked while a pipeline run
// replaces the corpus.
func (c Config) dsn() string {
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	return "file:" + c.Path + "?" + q.Encode()
}

// Open creates the parent directory when needed and checks the connection.
func Open(cfg Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}
	return db, nil
}
