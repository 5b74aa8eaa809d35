// Command seed creates the ADMIN account from ADMIN_EMAIL / ADMIN_PASSWORD,
// or promotes the existing account with that email.  Running it twice is safe.
package main

import (
	"context"
	"time"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/database"
	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/repository"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New(logger.Config{}).Fatal("load .env", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("invalid configuration", "err", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	admin, err := config.LoadAdminSeed()
	if err != nil {
		log.Fatal("invalid admin seed", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("connect database", "err", err)
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver, log); err != nil {
			log.Fatal("migrate database", "err", err)
		}
	}

	u, created, err := repository.NewUserRepo(db).EnsureAdmin(ctx, admin.Name, admin.Email, admin.Password, cfg.BcryptCost)
	if err != nil {
		log.Fatal("seed admin", "email", admin.Email, "err", err)
	}
	if created {
		log.Info("admin created", "id", u.ID, "email", u.Email)
	} else {
		log.Info("existing account promoted to admin", "id", u.ID, "email", u.Email)
	}
}
