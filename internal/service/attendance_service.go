package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/models"
	"github.com/presenza/attendance-api/internal/repository"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type attendanceRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
	ListByClassIDs(ctx context.Context, classIDs []string) ([]models.AttendanceRecord, error)
	Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
}

type attendanceClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
}

type attendanceUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SubmitAttendanceRequest is the payload for recording one session's roll call.
type SubmitAttendanceRequest struct {
	ClassID  string            `json:"classId" validate:"required"`
	Date     string            `json:"date" validate:"required"`
	TimeSlot *string           `json:"timeSlot,omitempty"`
	Records  map[string]string `json:"records" validate:"required"`
}

// AttendanceService coordinates attendance submission and student views.
type AttendanceService struct {
	attendance attendanceRepository
	classes    attendanceClassRepository
	users      attendanceUserRepository
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(attendance attendanceRepository, classes attendanceClassRepository, users attendanceUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance: attendance,
		classes:    classes,
		users:      users,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// Submit records one roll call. The session key (class, teacher, date, slot)
// is enforced unique by the database; a second submission for the same
// session is rejected with a conflict rather than silently overwritten.
func (s *AttendanceService) Submit(ctx context.Context, teacherID string, req SubmitAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	if len(req.Records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "records must not be empty")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	statuses := make(models.StatusMap, len(req.Records))
	for studentID, raw := range req.Records {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid attendance status %q for student %s", raw, studentID))
		}
		if !class.HasStudent(studentID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in class %s", studentID, class.ID))
		}
		statuses[studentID] = status
	}

	record := &models.AttendanceRecord{
		ID:        uuid.NewString(),
		ClassID:   req.ClassID,
		TeacherID: teacherID,
		Date:      req.Date,
		TimeSlot:  req.TimeSlot,
		Records:   statuses,
		CreatedAt: time.Now().UTC(),
	}

	saved, err := s.attendance.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already submitted for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist attendance record")
	}

	s.cache.Invalidate(ctx, fmt.Sprintf("report:class:%s*", req.ClassID))

	s.logger.Info("attendance recorded",
		zap.String("class_id", saved.ClassID),
		zap.String("date", saved.Date),
		zap.Int("students", len(saved.Records)))

	return saved, nil
}

// StudentOverview builds the per-class attendance view for one student
// across every class the student is enrolled in.
func (s *AttendanceService) StudentOverview(ctx context.Context, studentID string) ([]models.StudentClassSummary, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}

	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	if len(classes) == 0 {
		return []models.StudentClassSummary{}, nil
	}

	classIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}

	records, err := s.attendance.ListByClassIDs(ctx, classIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	return AggregateStudent(classes, records, studentID), nil
}
