package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/presenza/attendance-api/internal/models"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classUserRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// CreateClassRequest describes payload for creating a class.
type CreateClassRequest struct {
	Name       string   `json:"name" validate:"required"`
	Code       string   `json:"code" validate:"required"`
	StudentIDs []string `json:"studentIds"`
}

// UpdateClassRequest updates an existing class.
type UpdateClassRequest struct {
	Name       string   `json:"name" validate:"required"`
	Code       string   `json:"code" validate:"required"`
	StudentIDs []string `json:"studentIds"`
}

// ClassService manages class rosters.
type ClassService struct {
	repo      classRepository
	users     classUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService instantiates ClassService.
func NewClassService(repo classRepository, users classUserRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns classes matching the filter with a total count.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, total, nil
}

// Get fetches one class by ID.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new class after verifying every roster member is an
// active student account.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.verifyRoster(ctx, req.StudentIDs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	class := &models.Class{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Code:       req.Code,
		StudentIDs: pq.StringArray(req.StudentIDs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update replaces a class's name, code, and roster.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verifyRoster(ctx, req.StudentIDs); err != nil {
		return nil, err
	}

	class.Name = req.Name
	class.Code = req.Code
	class.StudentIDs = pq.StringArray(req.StudentIDs)
	class.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func (s *ClassService) verifyRoster(ctx context.Context, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	users, err := s.users.ListByIDs(ctx, studentIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify roster")
	}
	found := make(map[string]models.UserRole, len(users))
	for _, user := range users {
		found[user.ID] = user.Role
	}
	for _, id := range studentIDs {
		role, ok := found[id]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s does not exist", id))
		}
		if role != models.RoleStudent {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not a student account", id))
		}
	}
	return nil
}
