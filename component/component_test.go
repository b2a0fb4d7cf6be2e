package component

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/shoplist/logger"
)

type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() Description {
	return Description{Type: "redis", Details: "localhost:6379"}
}

func newRegistry() *Registry { return NewRegistry(logger.NewNop()) }

func TestRegisterDuplicate(t *testing.T) {
	r := newRegistry()
	if err := r.Register(&mockComponent{name: "db"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "db"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "db"})

	if got := r.Get("db"); got == nil || got.Name() != "db" {
		t.Fatalf("expected registered component, got %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestStartAllOrder(t *testing.T) {
	r := newRegistry()
	order := []string{}
	_ = r.Register(&mockComponent{name: "db", startOrder: &order})
	_ = r.Register(&describedComponent{mockComponent{name: "redis", startOrder: &order}})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if len(order) != 2 || order[0] != "db" || order[1] != "redis" {
		t.Errorf("expected start order [db, redis], got %v", order)
	}
}

func TestStartAllIsIncremental(t *testing.T) {
	r := newRegistry()
	order := []string{}
	_ = r.Register(&mockComponent{name: "db", startOrder: &order})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}

	_ = r.Register(&mockComponent{name: "http-server", startOrder: &order})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}
	if len(order) != 2 || order[1] != "http-server" {
		t.Errorf("expected db started once then http-server, got %v", order)
	}
}

func TestStartAllError(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "db", startErr: fmt.Errorf("connection refused")})

	if err := r.StartAll(context.Background()); err == nil {
		t.Error("expected error from StartAll")
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := newRegistry()
	order := []string{}
	_ = r.Register(&mockComponent{name: "db", stopOrder: &order})
	_ = r.Register(&mockComponent{name: "sweeper", stopOrder: &order})
	_ = r.Register(&mockComponent{name: "http-server", stopOrder: &order})

	_ = r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	want := []string{"http-server", "sweeper", "db"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected reverse stop order %v, got %v", want, order)
		}
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := newRegistry()
	order := []string{}
	_ = r.Register(&mockComponent{name: "db", stopOrder: &order})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %d", len(order))
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "db", stopErr: fmt.Errorf("stop failed")})
	_ = r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAll(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "db", health: Health{Name: "db", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "redis", health: Health{Name: "redis", Status: StatusUnhealthy, Message: "timeout"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy || results[1].Status != StatusUnhealthy {
		t.Errorf("unexpected health %v", results)
	}
}
