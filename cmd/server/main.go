package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/database"
	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/metrics"
	"github.com/iliyamo/writing-practice-api/internal/middleware"
	"github.com/iliyamo/writing-practice-api/internal/queue"
	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/router"
	"github.com/iliyamo/writing-practice-api/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New(logger.Config{}).Fatal("load .env", "err", err)
	}
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logger.New(logger.Config{}).Fatal("invalid configuration", "err", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("connect database", "driver", cfg.DBDriver, "err", err)
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver, log); err != nil {
			log.Fatal("migrate database", "err", err)
		}
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitURL, log)
		go func() {
			if err := queue.StartSubmissionConsumer(ctx, cfg.RabbitURL, cfg.EventsLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("submission consumer stopped", "err", err)
			}
		}()
	}

	cacheCfg := config.LoadCacheConfig()
	users := repository.NewUserRepo(db)
	ideas := repository.NewIdeaRepo(db)
	texts := repository.NewTextRepo(db)

	var purger service.CacheInvalidator
	if rdb != nil {
		purger = middleware.NewCachePurger(rdb, cacheCfg.Prefix)
	}

	e := router.New(router.Deps{
		DB:          db,
		Redis:       rdb,
		Log:         log,
		Metrics:     metrics.New("writing_practice"),
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Cache:       cacheCfg,
		RateLimit:   config.LoadRateLimitConfig(),
		Auth:        service.NewAuthService(users, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.BcryptCost),
		Ideas:       service.NewIdeaService(ideas, purger, log),
		Texts:       service.NewTextService(texts, ideas, events, log),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
}
