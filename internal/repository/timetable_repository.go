package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/presenza/attendance-api/internal/models"
)

// TimetableRepository manages persistence for schedule templates.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = "id, class_id, teacher_id, day_of_week, start_time, end_time, date, created_at, updated_at"

// List returns schedule templates matching filters along with total count.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	base := "FROM timetables WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week %s, start_time ASC LIMIT %d OFFSET %d", timetableColumns, base, order, size, offset)
	var templates []models.Timetable
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	return templates, total, nil
}

// FindByID fetches a schedule template by ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE id = $1", timetableColumns)
	var template models.Timetable
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// ListByClass returns all schedule templates for a class.
func (r *TimetableRepository) ListByClass(ctx context.Context, classID string) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE class_id = $1 ORDER BY day_of_week ASC, start_time ASC", timetableColumns)
	var templates []models.Timetable
	if err := r.db.SelectContext(ctx, &templates, query, classID); err != nil {
		return nil, fmt.Errorf("list timetables by class: %w", err)
	}
	return templates, nil
}

// ListByTeacher returns all schedule templates owned by a teacher.
func (r *TimetableRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_time ASC", timetableColumns)
	var templates []models.Timetable
	if err := r.db.SelectContext(ctx, &templates, query, teacherID); err != nil {
		return nil, fmt.Errorf("list timetables by teacher: %w", err)
	}
	return templates, nil
}

// Create inserts a new schedule template.
func (r *TimetableRepository) Create(ctx context.Context, template *models.Timetable) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	const query = `INSERT INTO timetables (id, class_id, teacher_id, day_of_week, start_time, end_time, date, created_at, updated_at)
		VALUES (:id, :class_id, :teacher_id, :day_of_week, :start_time, :end_time, :date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// Update modifies an existing schedule template.
func (r *TimetableRepository) Update(ctx context.Context, template *models.Timetable) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetables SET class_id = :class_id, teacher_id = :teacher_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, date = :date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update timetable: %w", err)
	}
	return nil
}

// Delete removes a schedule template.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return nil
}
