package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/presenza/attendance-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func statusJSON(t *testing.T, statuses models.StatusMap) []byte {
	t.Helper()
	raw, err := json.Marshal(statuses)
	require.NoError(t, err)
	return raw
}

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	statuses := models.StatusMap{"s1": models.StatusPresent}

	rows := sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "date", "time_slot", "records", "created_at"}).
		AddRow("rec-1", "c1", "t1", "2025-01-06", nil, statusJSON(t, statuses), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WillReturnRows(rows)

	saved, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		ClassID:   "c1",
		TeacherID: "t1",
		Date:      "2025-01-06",
		Records:   statuses,
	})
	require.NoError(t, err)
	require.Equal(t, "rec-1", saved.ID)
	require.Equal(t, models.StatusPresent, saved.Records["s1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)

	// ON CONFLICT DO NOTHING returns no rows when the session already exists
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		ClassID:   "c1",
		TeacherID: "t1",
		Date:      "2025-01-06",
		Records:   models.StatusMap{"s1": models.StatusPresent},
	})
	require.True(t, errors.Is(err, ErrDuplicateRecord))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	statuses := models.StatusMap{"s1": models.StatusLate}

	rows := sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "date", "time_slot", "records", "created_at"}).
		AddRow("rec-1", "c1", "t1", "2025-01-06", "08:00 - 09:00", statusJSON(t, statuses), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, class_id, teacher_id, date, time_slot, records, created_at FROM attendance_records WHERE class_id = $1")).
		WithArgs("c1").
		WillReturnRows(rows)

	records, err := repo.ListByClass(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.StatusLate, records[0].Records["s1"])
	require.NotNil(t, records[0].TimeSlot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	statuses := models.StatusMap{"s1": models.StatusPresent}

	rows := sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "date", "time_slot", "records", "created_at"}).
		AddRow("rec-1", "c1", "t1", "2025-01-06", nil, statusJSON(t, statuses), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(time_slot, '') = COALESCE($4, '')")).
		WithArgs("c1", "t1", "2025-01-06", nil).
		WillReturnRows(rows)

	// a nil slot matches a row stored with NULL time_slot
	record, err := repo.FindByKey(context.Background(), "c1", "t1", "2025-01-06", nil)
	require.NoError(t, err)
	require.Equal(t, "rec-1", record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByKeyMissing(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)

	slot := "08:00 - 09:00"
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records WHERE class_id = $1 AND teacher_id = $2")).
		WithArgs("c1", "t1", "2025-01-06", slot).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "c1", "t1", "2025-01-06", &slot)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByClassIDsEmpty(t *testing.T) {
	db, _, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	records, err := repo.ListByClassIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, records)
}
