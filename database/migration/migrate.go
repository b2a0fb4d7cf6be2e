// Package migration applies versioned SQL scripts with golang-migrate.
//
// Scripts follow golang-migrate naming, VERSION_name.up.sql and
// VERSION_name.down.sql, and are read from any fs.FS, usually an embed.FS.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kbukum/shoplist/logger"
)

// Migrator applies the scripts of one directory to one database.
type Migrator struct {
	m   *migrate.Migrate
	log *logger.Logger
}

// New binds the scripts under dir in fsys to db. driver is "sqlite" or
// "postgres".
//
// The Migrator shares db with the caller and has no Close: closing the
// underlying migrate instance would close db.
func New(db *sql.DB, driver string, fsys fs.FS, dir string, log *logger.Logger) (*Migrator, error) {
	target, err := instance(db, driver)
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration source %s: %w", dir, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	log = log.WithComponent("migration")
	m.Log = migrateLogger{log: log}
	return &Migrator{m: m, log: log}, nil
}

func instance(db *sql.DB, driver string) (migratedb.Driver, error) {
	switch driver {
	case "sqlite":
		return sqlite3.WithInstance(db, &sqlite3.Config{})
	case "postgres":
		return postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Up applies every pending script. Nothing pending is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return m.logVersion("Schema up to date")
}

// Down reverts every applied script.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return m.logVersion("Schema reverted")
}

// Steps applies n scripts forward, or reverts -n when n is negative.
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps %d: %w", n, err)
	}
	return m.logVersion("Schema stepped")
}

// Version reports the applied version; 0 means none. dirty is set when a
// script failed halfway and needs manual repair.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) logVersion(msg string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info(msg, logger.Fields("version", v, "dirty", dirty))
	return nil
}

type migrateLogger struct {
	log *logger.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool { return false }
