package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/config"
	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
	"github.com/kbukum/shoplist/server"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *Config {
	cfg := &Config{
		Server: server.Config{Host: "127.0.0.1", Port: freePort(t)},
		Database: database.Config{
			Enabled:     true,
			Driver:      database.DriverSQLite,
			DSN:         ":memory:",
			AutoMigrate: true,
			LogLevel:    "silent",
		},
		Auth: auth.Config{
			Password: password.Config{Algorithm: password.AlgorithmPBKDF2, PBKDF2Iterations: 1000},
		},
	}
	cfg.Environment = "test"
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Name != ServiceName {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.TokenStore != TokenStoreMemory {
		t.Errorf("token store = %q, want memory without a database", cfg.TokenStore)
	}
	if cfg.Auth.AccessTokenTTL != 10*time.Minute {
		t.Errorf("access token ttl = %s", cfg.Auth.AccessTokenTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	withDB := testConfig(t)
	withDB.ApplyDefaults()
	if withDB.TokenStore != TokenStoreSQL {
		t.Errorf("token store = %q, want sql with a database", withDB.TokenStore)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"redis store without redis", func(c *Config) { c.TokenStore = TokenStoreRedis }},
		{"sql store without database", func(c *Config) { c.TokenStore = TokenStoreSQL }},
		{"unknown store", func(c *Config) { c.TokenStore = "etcd" }},
		{"unknown environment", func(c *Config) { c.Environment = "qa" }},
		{"jwt without section", func(c *Config) { c.Auth.TokenFormat = auth.TokenFormatJWT }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := []byte(`name: shoplist
environment: test
database:
  enabled: true
  driver: sqlite
  dsn: ":memory:"
auth:
  access_token_ttl: 5m
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOPLIST_SERVER_PORT", "9191")

	cfg, err := LoadConfig(config.WithConfigFile(path), config.WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("env override lost: port = %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 5*time.Minute {
		t.Errorf("access token ttl = %s", cfg.Auth.AccessTokenTTL)
	}
	if cfg.TokenStore != TokenStoreSQL {
		t.Errorf("token store = %q", cfg.TokenStore)
	}
}

func do(t *testing.T, h http.Handler, method, path, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAppServesAndSweeps(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	a, err := New(testConfig(t),
		WithLogger(logger.NewNop()),
		WithGracefulTimeout(5*time.Second),
		WithRepositoryOptions(repository.WithClock(clock.Now)),
	)
	if err != nil {
		t.Fatal(err)
	}

	ready := false
	a.OnReady(func(context.Context) error { ready = true; return nil })

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := a.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}()
	if !ready {
		t.Error("OnReady hook did not run")
	}
	if err := a.ReadyCheck(ctx); err != nil {
		t.Errorf("ready check: %v", err)
	}

	resp, err := http.Get("http://" + a.Server.Addr() + "/alive")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /alive = %d", resp.StatusCode)
	}

	h := a.Server.Handler()
	if rr := do(t, h, http.MethodGet, "/health", "", nil); rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d %s", rr.Code, rr.Body.String())
	}

	rr := do(t, h, http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "correct horse", "visibility": "private",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/v1/tokens", auth.BasicCredentials("ann@example.com", "correct horse"), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("issue token = %d %s", rr.Code, rr.Body.String())
	}
	var issued struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &issued); err != nil || issued.Data.AccessToken == "" {
		t.Fatalf("token response %s: %v", rr.Body.String(), err)
	}
	bearer := "Bearer " + issued.Data.AccessToken

	if rr := do(t, h, http.MethodGet, "/api/v1/users/me", bearer, nil); rr.Code != http.StatusOK {
		t.Fatalf("GET /me = %d %s", rr.Code, rr.Body.String())
	}

	clock.Advance(11 * time.Minute)
	rr = do(t, h, http.MethodGet, "/api/v1/users/me", bearer, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expired token: GET /me = %d", rr.Code)
	}
	if rr.Header().Values("WWW-Authenticate") == nil {
		t.Error("401 without a challenge")
	}

	removed, err := a.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed["access_token"] != 1 {
		t.Errorf("swept %v, want one access token", removed)
	}
}

func TestRunTaskSkipsServer(t *testing.T) {
	a, err := New(testConfig(t), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatal(err)
	}

	var swept map[string]int64
	err = a.RunTask(context.Background(), func(ctx context.Context) error {
		var err error
		swept, err = a.Sweep(ctx)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Server != nil {
		t.Error("RunTask should not build the HTTP server")
	}
	if _, ok := swept["authorization_code"]; !ok {
		t.Errorf("sweep skipped authorization codes: %v", swept)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := &Config{TokenStore: TokenStoreRedis}
	if _, err := New(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected New to reject a redis token store without redis")
	}
}
