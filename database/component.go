package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/shoplist/component"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/util"
)

// Component manages the DB lifecycle in a component.Registry.
type Component struct {
	db     *DB
	cfg    Config
	log    *logger.Logger
	models []interface{}

	scripts    fs.FS
	scriptsDir string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns an unstarted database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithAutoMigrate registers models migrated on Start when AutoMigrate is set.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations registers the versioned scripts applied on Start when
// AutoMigrate is set and Migrations is "sql".
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.scripts, c.scriptsDir = fsys, dir
	return c
}

// DB returns the connection, or nil before Start.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

// Start connects and runs auto-migration.
func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.cfg.AutoMigrate {
		if err := c.migrate(); err != nil {
			_ = c.db.Close()
			c.db = nil
			return err
		}
	}
	return nil
}

func (c *Component) migrate() error {
	if c.cfg.Migrations != MigrationsSQL {
		if len(c.models) == 0 {
			return nil
		}
		if err := c.db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
		return nil
	}

	if c.scripts == nil {
		return fmt.Errorf("database migrations: no scripts registered")
	}
	m, err := c.db.Migrator(c.scripts, c.scriptsDir)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		return fmt.Errorf("database migrations: %w", err)
	}
	return nil
}

// Stop closes the pool.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.db == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "database not initialized"
		return h
	}
	stats, err := c.db.CheckHealth(ctx)
	switch {
	case err != nil:
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("ping failed: %v", err)
	case stats.InUse >= c.cfg.MaxOpenConns && !c.cfg.inMemory():
		h.Status = component.StatusDegraded
		h.Message = "connection pool exhausted"
	}
	return h
}

// Describe reports the driver, masked DSN and pool size.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s %s pool=%d/%d", c.cfg.Driver, util.MaskDSN(c.cfg.DSN), c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.AutoMigrate {
		details += " migrations=" + c.cfg.Migrations
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}
