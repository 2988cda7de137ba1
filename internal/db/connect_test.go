package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/db/dbtest"
)

func TestOpenCreatesSchema(t *testing.T) {
	dbh := dbtest.Open(t)
	for _, table := range []string{"users", "scenarios", "scenario_evaluations", "weather_stations", "report_jobs"} {
		var n int
		err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		require.NoError(t, err, table)
		assert.Zero(t, n, table)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), db.Driver("oracle"), "")
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	dbh := dbtest.Open(t)
	insert := `INSERT INTO users (email,hashed_password,full_name,role,created_at,updated_at) VALUES ($1,'x','X','gestor',0,0)`
	dbtest.MustExec(t, dbh, insert, "a@siad.ag")
	_, err := dbh.Exec(insert, "a@siad.ag")
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.False(t, db.IsUniqueViolation(errors.New("boom")))
	assert.False(t, db.IsUniqueViolation(nil))
	assert.True(t, db.IsUniqueViolation(fmt.Errorf("wrapped: %w", errors.New("ERROR: duplicate key value violates unique constraint"))))
}
