package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/models"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type sessionClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type sessionTimetableRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Timetable, error)
}

// SessionService resolves upcoming attendance sessions from schedule templates.
type SessionService struct {
	classes     sessionClassRepository
	timetables  sessionTimetableRepository
	validator   *validator.Validate
	logger      *zap.Logger
	horizonDays int
	now         func() time.Time
}

// NewSessionService instantiates SessionService. horizonDays bounds the
// recurring-session lookahead; one-off dated templates are not bounded by it.
func NewSessionService(classes sessionClassRepository, timetables sessionTimetableRepository, validate *validator.Validate, logger *zap.Logger, horizonDays int) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &SessionService{
		classes:     classes,
		timetables:  timetables,
		validator:   validate,
		logger:      logger,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// AvailableDates lists the upcoming session dates for a class in ascending order.
func (s *SessionService) AvailableDates(ctx context.Context, classID string, horizonDays int) ([]string, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	if horizonDays <= 0 {
		horizonDays = s.horizonDays
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	templates, err := s.timetables.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule templates")
	}

	return ResolveAvailableDates(templates, classID, horizonDays, s.now()), nil
}

// TimeSlots lists the distinct slot labels a class meets on the given date.
func (s *SessionService) TimeSlots(ctx context.Context, classID, date string) ([]string, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	templates, err := s.timetables.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule templates")
	}

	return ResolveTimeSlotsForDate(templates, classID, date), nil
}
