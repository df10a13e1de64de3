package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	adapthttp "healthdash/internal/adapter/http"
	"healthdash/internal/adapter/memory"
	"healthdash/internal/adapter/postgres"
	"healthdash/internal/adapter/rediscache"
	"healthdash/internal/app"
	"healthdash/internal/config"
	"healthdash/internal/domain"
	"healthdash/internal/logging"
	"healthdash/internal/metrics"
	"healthdash/internal/scheduler"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 10 * time.Second

type storage struct {
	samples  domain.SampleRepository
	access   domain.AccessRepository
	users    domain.UserRepository
	sessions domain.SessionRepository
	close    func() error
}

func main() {
	env := flag.String("env", "dev", "config section to use: dev or prod")
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("config: %s", err)
	}

	var logFile string
	if cfg.LogsPath != "" {
		logFile = filepath.Join(cfg.LogsPath, "healthdash")
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   logFile,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("storage: %s", err)
	}
	defer func() { _ = store.close() }()

	loc, _ := cfg.Location()
	reg := metrics.SetupPrometheus()
	m := metrics.NewManager("healthdash", "server", reg)

	health := app.NewHealthStore(store.samples, store.access, loc)
	dashboards := app.NewDashboardService(health).WithMetrics(m)
	samples := app.NewSampleService(health, store.samples).WithMetrics(m)
	access := app.NewAccessService(store.access)
	authSvc := app.NewAuthService(store.users, store.sessions)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = client.Close() }()

		ttl, _ := cfg.CacheTTLDuration()
		cache := rediscache.New(client, ttl)
		if err := cache.Ping(ctx); err != nil {
			log.Warnf("redis %s unreachable, dashboards will be rebuilt until it is back: %s", cfg.RedisAddr, err)
		}
		dashboards.WithCache(cache)
		samples.WithCache(cache)
		access.WithCache(cache)
		log.Infof("dashboard cache on redis %s, ttl %s", cfg.RedisAddr, ttl)
	}

	srv := adapthttp.New(dashboards, samples, access, authSvc, cfg.WebDir).WithMetrics(m, reg)
	if cfg.DisableAuth {
		// Samples and grants reference users, so the local user has to exist.
		local, err := authSvc.ValidateForwardAuth(ctx, "local")
		if err != nil {
			log.Fatalf("provision local user: %s", err)
		}
		log.Warnf("authentication is disabled, serving every request as %q", local.Username)
		srv.WithoutAuth(local)
	}
	if cfg.OIDCEnabled() {
		oidcCfg, err := setupOIDC(ctx, cfg)
		if err != nil {
			log.Fatalf("oidc: %s", err)
		}
		srv.WithOIDC(oidcCfg)
	}

	jobs := scheduler.New(time.Minute)
	if err := jobs.Add(cfg.SessionPurgeSchedule, "purge-sessions", scheduler.PurgeSessions(authSvc, m)); err != nil {
		log.Fatal(err)
	}
	jobs.Start()
	defer jobs.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s (env %s, storage %s, timezone %s)", cfg.Addr, cfg.Environment, cfg.Storage, loc)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %s", err)
	}
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		db := memory.New()
		return &storage{
			samples:  db,
			access:   db,
			users:    db,
			sessions: db.NewSessionRepo(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &storage{
		samples:  db,
		access:   db,
		users:    db,
		sessions: postgres.NewSessionRepo(db),
		close:    db.Close,
	}, nil
}

func setupOIDC(ctx context.Context, cfg *config.Config) (adapthttp.OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}
