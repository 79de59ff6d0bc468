package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanWithReminderWindow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s, err := store.New(&store.Config{ReadConn: sqlx.NewDb(mockDB, "postgres"), WriteConn: sqlx.NewDb(mockDB, "postgres")})
	require.NoError(t, err)

	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	w := followup.NewWindow(now, followup.DefaultPolicy())

	mock.ExpectQuery(`SELECT \* FROM leads WHERE \(overdue_reminder_sent = \$1 AND next_follow_up_date IS NOT NULL AND next_follow_up_date < \$2 AND status NOT IN \(\$3, \$4\)\)`).
		WithArgs(false, "2025-01-10", "Won", "Lost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(1, "New"))

	mock.ExpectQuery(`SELECT \* FROM leads WHERE \(upcoming_reminder_sent = \$1 AND next_follow_up_date >= \$2 AND next_follow_up_date < \$3 AND status NOT IN \(\$4, \$5\)\)`).
		WithArgs(false, "2025-01-14", "2025-01-15", "Won", "Lost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	mock.ExpectQuery(`SELECT \* FROM sticky_notes WHERE \(is_reminder_sent = \$1 AND reminder_at <= \$2\)`).
		WithArgs(false, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content"}).AddRow(5, "call back"))

	ctx := context.Background()
	overdue, err := s.ScanLeads(ctx, w.OverdueFilter(), nil)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	upcoming, err := s.ScanLeads(ctx, w.UpcomingFilter(), nil)
	require.NoError(t, err)
	assert.Empty(t, upcoming)

	notes, err := s.ScanStickyNotes(ctx, w.NotesFilter(), nil)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}
