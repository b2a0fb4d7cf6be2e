package sqlstore

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
)

func TestVersionedMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := database.Config{Enabled: true, Driver: database.DriverSQLite, DSN: ":memory:", LogLevel: "silent"}
	db, err := database.Open(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	m, err := db.Migrator(Migrations(db.Driver()))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("second Up should be a no-op: %v", err)
	}
	v, dirty, err := m.Version()
	if err != nil || v != 1 || dirty {
		t.Fatalf("Version = %d %v %v, want 1 clean", v, dirty, err)
	}

	users := NewUsers(db)
	u := securedUser("ann@example.com")
	if err := users.Insert(ctx, u); err != nil {
		t.Fatalf("insert over scripted schema: %v", err)
	}
	dup := securedUser("ann@example.com")
	if err := users.Insert(ctx, dup); !stderrors.Is(err, repository.ErrDuplicate) {
		t.Errorf("unique email index missing: %v", err)
	}

	tokens := NewAccessTokens(db)
	if err := tokens.Insert(ctx, domain.NewAccessToken("tok", u.ID, uuid.Nil, t0, time.Minute), t0); err != nil {
		t.Fatal(err)
	}
	if n, err := tokens.Sweep(ctx, t0.Add(time.Minute)); err != nil || n != 1 {
		t.Errorf("Sweep = %d %v, want 1", n, err)
	}

	if err := m.Down(); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if db.GormDB.Migrator().HasTable("users") {
		t.Error("users table survived Down")
	}
	if v, _, _ := m.Version(); v != 0 {
		t.Errorf("version after Down = %d", v)
	}
}

func TestComponentAppliesScripts(t *testing.T) {
	ctx := context.Background()
	comp := database.NewComponent(database.Config{
		Enabled:     true,
		Driver:      database.DriverSQLite,
		DSN:         ":memory:",
		AutoMigrate: true,
		Migrations:  database.MigrationsSQL,
		LogLevel:    "silent",
	}, logger.NewNop()).WithMigrations(Migrations(database.DriverSQLite))
	if err := comp.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer comp.Stop(ctx)

	for _, table := range []string{"users", "client_apps", "access_tokens", "authorization_codes"} {
		if !comp.DB().GormDB.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
}
