package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesOnlyNewVersions(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))

	for _, m := range migrations[1:] {
		mock.ExpectBegin()
		for range m.statements {
			mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(`INSERT INTO schema_migrations \(version\) VALUES \(\$1\)`).
			WithArgs(m.version).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	before, err := Migrate(context.Background(), sqlx.NewDb(mockDB, "postgres"))
	require.NoError(t, err)
	assert.Equal(t, 1, before)
	assert.Equal(t, 3, SchemaVersion())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUpToDate(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(SchemaVersion()))

	before, err := Migrate(context.Background(), sqlx.NewDb(mockDB, "postgres"))
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), before)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateNilDB(t *testing.T) {
	_, err := Migrate(context.Background(), nil)
	assert.Error(t, err)
}
