package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/models"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

const clockLayout = "15:04"

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Create(ctx context.Context, template *models.Timetable) error
	Update(ctx context.Context, template *models.Timetable) error
	Delete(ctx context.Context, id string) error
}

type timetableClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type timetableUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SaveTimetableRequest describes payload for creating or updating a schedule
// template. Date, when set, makes the template a one-off session on that day.
type SaveTimetableRequest struct {
	ClassID   string  `json:"classId" validate:"required"`
	TeacherID string  `json:"teacherId" validate:"required"`
	DayOfWeek string  `json:"dayOfWeek" validate:"required"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Date      *string `json:"date,omitempty"`
}

// TimetableService manages schedule templates.
type TimetableService struct {
	repo      timetableRepository
	classes   timetableClassRepository
	users     timetableUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(repo timetableRepository, classes timetableClassRepository, users timetableUserRepository, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, classes: classes, users: users, validator: validate, logger: logger}
}

// List returns schedule templates matching the filter with a total count.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	templates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule templates")
	}
	return templates, total, nil
}

// Get fetches one schedule template by ID.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule template")
	}
	return template, nil
}

// Create registers a schedule template.
func (s *TimetableService) Create(ctx context.Context, req SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := &models.Timetable{
		ID:        uuid.NewString(),
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
		DayOfWeek: models.DayOfWeek(req.DayOfWeek),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Date:      req.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule template")
	}
	return template, nil
}

// Update replaces a schedule template.
func (s *TimetableService) Update(ctx context.Context, id string, req SaveTimetableRequest) (*models.Timetable, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	template.ClassID = req.ClassID
	template.TeacherID = req.TeacherID
	template.DayOfWeek = models.DayOfWeek(req.DayOfWeek)
	template.StartTime = req.StartTime
	template.EndTime = req.EndTime
	template.Date = req.Date
	template.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule template")
	}
	return template, nil
}

// Delete removes a schedule template.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule template")
	}
	return nil
}

// validateRequest enforces the template shape at the admin boundary so the
// session resolver can trust stored templates: a closed weekday name, HH:MM
// times with start strictly before end, and a well-formed one-off date when
// present.
func (s *TimetableService) validateRequest(ctx context.Context, req SaveTimetableRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule template payload")
	}

	if !models.DayOfWeek(req.DayOfWeek).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be a weekday name (Monday through Sunday)")
	}

	start, err := time.Parse(clockLayout, req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted as HH:MM")
	}
	end, err := time.Parse(clockLayout, req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be formatted as HH:MM")
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}

	if req.Date != nil {
		if _, err := time.Parse(dateLayout, *req.Date); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrValidation, "teacherId must reference a teacher account")
	}

	return nil
}
