// Package testutil provides shared fixtures for package tests: an in-memory
// SQLite database migrated with the production schema, and seeded rows.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/database"
	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/repository"
)

// TestSecret signs tokens in tests.
const TestSecret = "test-jwt-secret"

// TestBcryptCost keeps hashing fast in tests.
const TestBcryptCost = 4

var dbSeq atomic.Int64

// SetupTestDB opens a fresh, migrated in-memory SQLite database that is
// closed when the test ends.  Each call gets its own database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.OpenSQLite(ctx, name)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, config.DriverSQLite, logger.Discard()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts an account with password "password1".
func CreateUser(t *testing.T, db *sql.DB, email string, role model.Role) model.User {
	t.Helper()
	u, err := repository.NewUserRepo(db).Create(context.Background(), "Tester", email, "password1", role, TestBcryptCost)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateIdea inserts an idea.
func CreateIdea(t *testing.T, db *sql.DB, title, content string) model.Idea {
	t.Helper()
	i := model.Idea{Title: title, Content: content}
	if err := repository.NewIdeaRepo(db).Create(context.Background(), &i); err != nil {
		t.Fatalf("create idea %q: %v", title, err)
	}
	return i
}

// CreateText inserts a text owned by ownerID.
func CreateText(t *testing.T, db *sql.DB, ownerID, ideaID uint64, content string, minutes uint32) model.Text {
	t.Helper()
	x := model.Text{UserID: ownerID, IdeaID: ideaID, Content: content, Time: minutes}
	if err := repository.NewTextRepo(db).Create(context.Background(), &x); err != nil {
		t.Fatalf("create text: %v", err)
	}
	return x
}
