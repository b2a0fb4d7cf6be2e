package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/shoplist/api"
	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/component"
	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
	"github.com/kbukum/shoplist/redis"
	"github.com/kbukum/shoplist/repository"
	"github.com/kbukum/shoplist/repository/memstore"
	"github.com/kbukum/shoplist/repository/redisstore"
	"github.com/kbukum/shoplist/repository/sqlstore"
	"github.com/kbukum/shoplist/server"
	"github.com/kbukum/shoplist/server/endpoint"
)

// Repositories groups the repositories built over the configured backends.
type Repositories struct {
	Users              *repository.UserRepository
	SecuredUsers       *repository.SecuredUserRepository
	ClientApps         *repository.ClientAppRepository
	AccessTokens       *repository.AccessTokenRepository
	AuthorizationCodes *repository.AuthorizationCodeRepository
}

// App owns the shoplistd lifecycle.
//
// Startup runs in two phases. Phase 1 starts the infrastructure components
// (database, redis). Phase 2 builds repositories, authenticators and the
// issuer over them and, when serving, starts the sweeper and HTTP server.
type App struct {
	Name       string
	Version    string
	Cfg        *Config
	Logger     *logger.Logger
	Components *component.Registry
	Metrics    *observability.Metrics

	Repos      Repositories
	Dispatcher *auth.Dispatcher
	Issuer     *auth.Issuer
	Sweeper    *repository.ExpirySweeper
	Server     *server.Server

	db    *database.Component
	cache *redis.Component

	repoOpts        []repository.Option
	gracefulTimeout time.Duration
	configured      bool

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// New validates cfg and registers the infrastructure components it enables.
func New(cfg *Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	log := o.logger
	if log == nil {
		log = logger.New(&cfg.Logging, cfg.Name)
		logger.SetGlobalLogger(log)
	}

	a := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(log),
		repoOpts:        o.repoOpts,
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		a.gracefulTimeout = *o.gracefulTimeout
	}

	if cfg.Database.Enabled {
		a.db = database.NewComponent(cfg.Database, log).
			WithAutoMigrate(sqlstore.Models()...).
			WithMigrations(sqlstore.Migrations(cfg.Database.Driver))
		if err := a.Components.Register(a.db); err != nil {
			return nil, err
		}
	}
	if cfg.Redis.Enabled {
		a.cache = redis.NewComponent(cfg.Redis, log)
		if err := a.Components.Register(a.cache); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		unhealthy = append(unhealthy, detail)
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run serves the HTTP API until SIGINT, SIGTERM or ctx cancellation, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// Start runs the startup sequence with the HTTP server and the sweeper
// and returns once the server is listening. Pair it with Shutdown.
func (a *App) Start(ctx context.Context) error {
	if err := a.startup(ctx, true); err != nil {
		_ = a.stop()
		return err
	}
	return nil
}

// RunTask runs a finite task against the configured stores without the
// HTTP server or the background sweeper. A signal cancels the task's
// context.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx, false); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// Sweep purges expired tokens and codes once and returns the count per
// resource.
func (a *App) Sweep(ctx context.Context) (map[string]int64, error) {
	if a.Sweeper == nil {
		return map[string]int64{}, nil
	}
	return a.Sweeper.SweepOnce(ctx)
}

func (a *App) startup(ctx context.Context, serve bool) error {
	start := time.Now()
	a.Logger.Info("Starting application", logger.Fields("name", a.Name, "version", a.Version))

	metrics, shutdown, err := observability.Setup(ctx, a.Cfg.Observability, observability.Resource{
		ServiceName:    a.Name,
		ServiceVersion: a.Version,
		Environment:    a.Cfg.Environment,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("observability setup: %w", err)
	}
	a.Metrics = metrics
	a.OnStop(Hook(shutdown))

	a.Logger.Info("Phase 1: Starting components")
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	a.Logger.Info("Phase 2: Wiring repositories and authentication")
	if err := a.configure(serve); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.logSummary(time.Since(start))
	return nil
}

func (a *App) configure(serve bool) error {
	if a.configured {
		return nil
	}
	cfg := a.Cfg

	opts := []repository.Option{
		repository.WithHasher(password.NewHasher(cfg.Auth.Password)),
		repository.WithPasswordPolicy(cfg.Auth.Password.Policy()),
		repository.WithLogger(a.Logger),
		repository.WithMetrics(a.Metrics),
	}
	opts = append(opts, a.repoOpts...)

	var (
		users   repository.UserBackend
		clients repository.ClientAppBackend
	)
	if a.db != nil {
		users = sqlstore.NewUsers(a.db.DB())
		clients = sqlstore.NewClientApps(a.db.DB())
	} else {
		users = memstore.NewUsers()
		clients = memstore.NewClientApps()
	}

	var (
		tokens repository.TokenBackend[domain.AccessToken]
		codes  repository.TokenBackend[domain.AuthorizationCode]
	)
	switch cfg.TokenStore {
	case TokenStoreSQL:
		tokens = sqlstore.NewAccessTokens(a.db.DB())
		codes = sqlstore.NewAuthorizationCodes(a.db.DB())
	case TokenStoreRedis:
		tokens = redisstore.NewAccessTokens(a.cache.Client())
		codes = redisstore.NewAuthorizationCodes(a.cache.Client())
	default:
		tokens = memstore.NewTokens[domain.AccessToken]()
		codes = memstore.NewTokens[domain.AuthorizationCode]()
	}

	a.Repos = Repositories{
		Users:              repository.NewUserRepository(users, opts...),
		SecuredUsers:       repository.NewSecuredUserRepository(users, opts...),
		ClientApps:         repository.NewClientAppRepository(clients, opts...),
		AccessTokens:       repository.NewAccessTokenRepository(tokens, withTTL(opts, cfg.Auth.AccessTokenTTL)...),
		AuthorizationCodes: repository.NewAuthorizationCodeRepository(codes, withTTL(opts, cfg.Auth.AuthorizationCodeTTL)...),
	}

	generator, err := auth.NewTokenGenerator(cfg.Auth)
	if err != nil {
		return fmt.Errorf("token generator: %w", err)
	}
	a.Dispatcher = auth.NewDispatcher([]auth.Authenticator{
		auth.NewBasicAuthenticator(a.Repos.SecuredUsers),
		auth.NewBearerAuthenticator(a.Repos.AccessTokens, a.Repos.Users),
	},
		auth.WithRealm(cfg.Auth.Realm),
		auth.WithDispatchLogger(a.Logger),
		auth.WithDispatchMetrics(a.Metrics),
	)
	a.Issuer = auth.NewIssuer(a.Repos.ClientApps, a.Repos.AccessTokens, a.Repos.AuthorizationCodes,
		generator, cfg.Auth.TokenBytes, a.Logger)

	// Redis expires entries natively.
	if cfg.TokenStore != TokenStoreRedis {
		a.Sweeper = repository.NewExpirySweeper(cfg.Auth.SweepInterval, a.Logger,
			a.Repos.AccessTokens, a.Repos.AuthorizationCodes)
	}

	a.configured = true
	if !serve {
		return nil
	}

	if a.Sweeper != nil {
		if err := a.Components.Register(a.Sweeper); err != nil {
			return err
		}
	}

	a.Server = server.New(cfg.Server, a.Logger)
	a.Server.ApplyMiddleware(a.Metrics)
	a.Server.RegisterProbes(endpoint.ServiceInfo{
		Name:        a.Name,
		Version:     a.Version,
		Environment: cfg.Environment,
		TokenStore:  cfg.TokenStore,
	}, a.Components.HealthAll)
	api.Register(a.Server.GinEngine(), api.Deps{
		Users:        a.Repos.Users,
		SecuredUsers: a.Repos.SecuredUsers,
		ClientApps:   a.Repos.ClientApps,
		Tokens:       a.Repos.AccessTokens,
		Issuer:       a.Issuer,
		Dispatcher:   a.Dispatcher,
		SecretBytes:  cfg.Auth.TokenBytes,
		RateLimit:    cfg.Server.CredentialRateLimit,
		Log:          a.Logger,
	})
	return a.Components.Register(server.NewComponent(a.Server))
}

// withTTL puts the TTL before the caller's options so tests can still
// override it.
func withTTL(opts []repository.Option, ttl time.Duration) []repository.Option {
	out := make([]repository.Option, 0, len(opts)+1)
	out = append(out, repository.WithTTL(ttl))
	return append(out, opts...)
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the application. Use it after Start.
func (a *App) Shutdown(_ context.Context) error {
	return a.stop()
}

func (a *App) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	// Telemetry flushes after the components stop.
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
