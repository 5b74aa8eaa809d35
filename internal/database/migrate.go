package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"github.com/pressly/goose/v3"

	"github.com/iliyamo/writing-practice-api/internal/config"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies every embedded migration for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string, log *charmlog.Logger) error {
	var dialect, dir string
	switch driver {
	case config.DriverMySQL:
		dialect, dir = "mysql", "migrations/mysql"
	case config.DriverSQLite:
		dialect, dir = "sqlite3", "migrations/sqlite"
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	if log != nil {
		goose.SetLogger(gooseLogger{log})
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate: apply: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through the application logger at debug level.
type gooseLogger struct{ l *charmlog.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) { g.l.Debugf(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.l.Fatalf(format, v...) }
