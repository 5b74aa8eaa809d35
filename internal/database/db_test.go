package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/database"
	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/testutil"
)

func TestMigrate_CreatesSchemaAndIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "ideas", "texts"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
	assert.NoError(t, database.Migrate(ctx, db, config.DriverSQLite, logger.Discard()))
}

func TestSchema_EnforcesConstraints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES ('a','a@x','h','OWNER',CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)")
	assert.Error(t, err, "role CHECK")

	_, err = db.ExecContext(ctx,
		"INSERT INTO texts (user_id, idea_id, content, time, created_at, updated_at) VALUES (1, 1, 'x', 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)")
	assert.Error(t, err, "foreign keys are on")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.Config{DBDriver: "postgres"})
	assert.ErrorContains(t, err, "unsupported driver")

	err = database.Migrate(context.Background(), nil, "postgres", nil)
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestOpenSQLite_File(t *testing.T) {
	path := t.TempDir() + "/app.db"
	db, err := database.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}
