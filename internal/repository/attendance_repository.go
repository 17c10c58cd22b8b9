package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/presenza/attendance-api/internal/models"
)

// ErrDuplicateRecord is returned when an attendance record already exists for
// the same (class, teacher, date, time slot) key.
var ErrDuplicateRecord = fmt.Errorf("attendance record already exists for this session")

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, class_id, teacher_id, date, time_slot, records, created_at"

// ListByClass returns all attendance records for a class, oldest first.
func (r *AttendanceRepository) ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = $1 ORDER BY date ASC, created_at ASC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID); err != nil {
		return nil, fmt.Errorf("list attendance by class: %w", err)
	}
	return records, nil
}

// ListByClassIDs batch-fetches attendance records for a set of classes.
func (r *AttendanceRepository) ListByClassIDs(ctx context.Context, classIDs []string) ([]models.AttendanceRecord, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = ANY($1) ORDER BY date ASC, created_at ASC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("list attendance by class ids: %w", err)
	}
	return records, nil
}

// FindByKey fetches the record for a concrete session, if one was submitted.
// The time slot comparison treats NULL and the empty string as the same key.
func (r *AttendanceRepository) FindByKey(ctx context.Context, classID, teacherID, date string, timeSlot *string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE class_id = $1 AND teacher_id = $2 AND date = $3 AND COALESCE(time_slot, '') = COALESCE($4, '')", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, classID, teacherID, date, timeSlot); err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert stores a new attendance record. The unique index on
// (class_id, teacher_id, date, time_slot) makes duplicate submissions lose
// atomically, closing the check-then-act window.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf(`INSERT INTO attendance_records (id, class_id, teacher_id, date, time_slot, records, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (class_id, teacher_id, date, COALESCE(time_slot, '')) DO NOTHING
RETURNING %s`, attendanceColumns)
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query, record.ID, record.ClassID, record.TeacherID, record.Date, record.TimeSlot, record.Records, record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}
	return &stored, nil
}
