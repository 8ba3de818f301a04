package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"beacon/internal/consent"
	"beacon/internal/device"
	"beacon/internal/organisation"
	"beacon/internal/platform/config"
	"beacon/internal/platform/httpserver"
	"beacon/internal/platform/logger"
	"beacon/internal/platform/metrics"
	platformredis "beacon/internal/platform/redis"
	"beacon/internal/profile"
	"beacon/internal/session"
	"beacon/internal/storage"
	"beacon/internal/subscription"
	"beacon/internal/tracking"
	httptransport "beacon/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session and consent state live in Redis when configured, otherwise in
	// process memory.
	var kv storage.Store = storage.NewMemoryStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		kv = storage.NewRedisStore(redisClient.Client)
		log.Info("using redis for session and consent state")
	}

	// Account data lives in Postgres when configured.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		log.Info("using postgres for account data")
	}

	location, err := session.NewMemoryLocation(cfg.SiteOrigin + "/index.html")
	if err != nil {
		log.Error("invalid site origin", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(session.Config{
		AuthDomain: cfg.AuthDomain,
		ClientID:   cfg.ClientID,
		SiteOrigin: cfg.SiteOrigin,
	}, session.NewTokenStore(kv), location, session.WithLogger(log))

	consents := consent.NewManager(consent.NewKVStore(kv), consent.WithLogger(log))

	envMap := tracking.DefaultEnvironmentMap()
	if cfg.EnvironmentMapPath != "" {
		envMap, err = config.LoadEnvironmentMap(cfg.EnvironmentMapPath)
		if err != nil {
			log.Error("invalid environment map", "error", err)
			os.Exit(1)
		}
	}
	env := tracking.EnvUnknown
	if origin, err := url.Parse(cfg.SiteOrigin); err == nil {
		env = envMap.Resolve(origin.Hostname())
	}

	var sink tracking.Sink = tracking.NewLogSink(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := tracking.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, tracking.WithKafkaLogger(log))
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("using kafka tracking sink", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	gate := tracking.New(consents, sink, env, tracking.WithLogger(log))
	consents.Initialize(ctx)

	var (
		profileStore profile.Store      = profile.NewMemoryStore()
		deviceStore  device.Store       = device.NewMemoryStore()
		orgStore     organisation.Store = organisation.NewMemoryStore()
		subStore     subscription.Store = subscription.NewMemoryStore()
	)
	if db != nil {
		profileStore = profile.NewPostgresStore(db)
		deviceStore = device.NewPostgresStore(db)
		orgStore = organisation.NewPostgresStore(db)
		subStore = subscription.NewPostgresStore(db)
	}

	profiles := profile.NewService(profileStore)
	organisations := organisation.NewService(orgStore, organisation.WithLogger(log))
	subscriptions := subscription.NewService(subStore, organisations)
	devices := device.NewService(deviceStore, subscriptions)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Metrics:       metrics.New(),
		Clock:         time.Now,
		Sessions:      sessions,
		Location:      location,
		Consents:      consents,
		Gate:          gate,
		Profiles:      profile.NewHandler(profiles, log),
		Devices:       device.NewHandler(devices, log),
		Organisations: organisation.NewHandler(organisations, log),
		Subscriptions: subscription.NewHandler(subscriptions, log),
	})

	srv := httpserver.New(cfg.Addr, router,
		httpserver.WithReadHeaderTimeout(cfg.ReadHeaderTimeout),
		httpserver.WithIdleTimeout(cfg.IdleTimeout),
	)
	log.Info("starting beacon", "addr", cfg.Addr, "environment", env)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
