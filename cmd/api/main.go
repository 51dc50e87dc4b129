package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sports-portal/internal/adapters/auth/jwtverifier"
	"sports-portal/internal/adapters/notify"
	pg "sports-portal/internal/adapters/storage/postgres"
	"sports-portal/internal/adapters/storage/postgres/migrations"
	"sports-portal/internal/platform/config"
	"sports-portal/internal/platform/logger"
	"sports-portal/internal/ports/auth"
	notifyport "sports-portal/internal/ports/notify"
	"sports-portal/internal/router"
)

// @title Sports Portal API
// @version 1.0
// @description Revisión de logros, certificaciones, inscripciones y solicitudes médicas de atletas.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		log.Error("database unavailable", map[string]any{"error": err})
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	notifier, closeNotifier, err := newNotifier(ctx, cfg, log)
	if err != nil {
		log.Error("notifier unavailable", map[string]any{"error": err, "driver": cfg.Notify.Driver})
		os.Exit(1)
	}
	defer closeNotifier()

	// sin JWT_SECRET queda en modo dev (headers X-Debug-*)
	var verifier auth.AuthVerifier
	if cfg.Auth.JWTSecret != "" {
		v, err := jwtverifier.New(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			log.Error("jwt verifier", map[string]any{"error": err})
			os.Exit(1)
		}
		verifier = v
	} else {
		log.Warn("JWT_SECRET not set, accepting debug headers", nil)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Notifier:     notifier,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", map[string]any{"addr": srv.Addr, "postgres": db != nil, "notify": cfg.Notify.Driver})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"error": err})
		os.Exit(1)
	}
	log.Info("server stopped", nil)
}

// openDB devuelve nil sin DB_DSN: el router usa el store in-memory.
func openDB(ctx context.Context, cfg config.Config, log logger.Logger) (*sql.DB, error) {
	if cfg.DB.DSN == "" {
		log.Info("DB_DSN not set, using in-memory storage", nil)
		return nil, nil
	}
	db, err := pg.Open(ctx, pg.Options{
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newNotifier: el log siempre recibe las notificaciones; redis/webhook se suman.
func newNotifier(ctx context.Context, cfg config.Config, log logger.Logger) (notifyport.Emitter, func(), error) {
	logEmitter := notify.NewLogEmitter(log)
	noop := func() {}

	switch cfg.Notify.Driver {
	case "redis":
		rdb, err := notify.DialRedis(ctx, cfg.Notify.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		re, err := notify.NewRedisEmitter(rdb, cfg.Notify.RedisChannel)
		if err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		return notify.Fanout{logEmitter, re}, func() { _ = rdb.Close() }, nil
	case "webhook":
		we, err := notify.NewWebhookEmitter(cfg.Notify.WebhookURL, cfg.Notify.WebhookToken, 5*time.Second)
		if err != nil {
			return nil, noop, err
		}
		return notify.Fanout{logEmitter, we}, noop, nil
	default:
		return logEmitter, noop, nil
	}
}
