package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fircode/shelter/internal/config"
	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/database/databasetest"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DBConfig
		want string
	}{
		{
			name: "mysql with password",
			cfg:  config.DBConfig{Driver: config.DriverMySQL, User: "u", Password: "p", Host: "h", Port: "3306", Name: "shelter"},
			want: "u:p@tcp(h:3306)/shelter?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		},
		{
			name: "mysql without password",
			cfg:  config.DBConfig{Driver: config.DriverMySQL, User: "u", Host: "h", Port: "3306", Name: "shelter"},
			want: "u@tcp(h:3306)/shelter?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		},
		{
			name: "postgres",
			cfg:  config.DBConfig{Driver: config.DriverPostgres, User: "u", Password: "p", Host: "h", Port: "5432", Name: "shelter", SSLMode: "disable"},
			want: "host=h port=5432 user=u password=p dbname=shelter sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := database.DSN(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	dsn, err := database.DSN(config.DBConfig{Driver: config.DriverSQLite, SQLitePath: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "foreign_keys")

	_, err = database.DSN(config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := databasetest.New(t)
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, n)
}

func TestConstraintErrors(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	insert := "INSERT INTO users (email, first_name, second_name, is_admin, password_hash, contribution) VALUES (?,?,?,?,?,?)"
	_, err := db.ExecContext(ctx, insert, "a@b.cd", "Al", "Bo", false, "hash!", 0)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "a@b.cd", "Al", "Bo", false, "hash!", 0)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx,
		"INSERT INTO feed_requests (actor_email, target_id, feed_amount, arrived_at) VALUES (?,?,?,?)",
		"a@b.cd", 404, 1, "2024-04-30")
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err))

	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (email, first_name, second_name, is_admin, password_hash, contribution) VALUES (?,?,?,?,?,?)",
			"a@b.cd", "Al", "Bo", false, "hash!", 0)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, n)
}

func TestInsertID(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	for want := int64(1); want <= 2; want++ {
		id, err := database.InsertID(ctx, db,
			"INSERT INTO dogs (name, photo, gender, age, description, feed_amount, arrived_at) VALUES (?,?,?,?,?,?,?)",
			"Rex", "default.jpg", "male", 3, "", 0, "2024-04-30")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}
