package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presenza/attendance-api/internal/models"
	"github.com/presenza/attendance-api/internal/repository"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type attendanceStoreStub struct {
	inserted  []*models.AttendanceRecord
	insertErr error
	byClass   map[string][]models.AttendanceRecord
}

func (r *attendanceStoreStub) ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	return r.byClass[classID], nil
}

func (r *attendanceStoreStub) ListByClassIDs(ctx context.Context, classIDs []string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, id := range classIDs {
		out = append(out, r.byClass[id]...)
	}
	return out, nil
}

func (r *attendanceStoreStub) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.inserted = append(r.inserted, record)
	return record, nil
}

type classStoreStub struct {
	classes   map[string]*models.Class
	byStudent map[string][]models.Class
}

func (r *classStoreStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := r.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (r *classStoreStub) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	return r.byStudent[studentID], nil
}

type userStoreStub struct {
	users map[string]*models.User
}

func (r *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func newTestAttendanceService(attendance *attendanceStoreStub, classes *classStoreStub, users *userStoreStub) *AttendanceService {
	return NewAttendanceService(attendance, classes, users, NewCacheService(nil, nil, nil), nil, nil)
}

func validSubmitRequest() SubmitAttendanceRequest {
	return SubmitAttendanceRequest{
		ClassID: "c1",
		Date:    "2025-01-06",
		Records: map[string]string{"s1": "present", "s2": "late"},
	}
}

func rosterClass() *classStoreStub {
	return &classStoreStub{classes: map[string]*models.Class{
		"c1": {ID: "c1", Name: "Math", StudentIDs: pq.StringArray{"s1", "s2"}},
	}}
}

func TestSubmitAttendance(t *testing.T) {
	store := &attendanceStoreStub{}
	svc := newTestAttendanceService(store, rosterClass(), &userStoreStub{})

	saved, err := svc.Submit(context.Background(), "t1", validSubmitRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "t1", saved.TeacherID)
	assert.Equal(t, models.StatusPresent, saved.Records["s1"])
	assert.Equal(t, models.StatusLate, saved.Records["s2"])
	require.Len(t, store.inserted, 1)
}

func TestSubmitAttendanceDuplicate(t *testing.T) {
	store := &attendanceStoreStub{insertErr: repository.ErrDuplicateRecord}
	svc := newTestAttendanceService(store, rosterClass(), &userStoreStub{})

	_, err := svc.Submit(context.Background(), "t1", validSubmitRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubmitAttendanceInvalidStatus(t *testing.T) {
	svc := newTestAttendanceService(&attendanceStoreStub{}, rosterClass(), &userStoreStub{})

	req := validSubmitRequest()
	req.Records = map[string]string{"s1": "excused"}

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitAttendanceStudentNotEnrolled(t *testing.T) {
	svc := newTestAttendanceService(&attendanceStoreStub{}, rosterClass(), &userStoreStub{})

	req := validSubmitRequest()
	req.Records = map[string]string{"stranger": "present"}

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitAttendanceBadDate(t *testing.T) {
	svc := newTestAttendanceService(&attendanceStoreStub{}, rosterClass(), &userStoreStub{})

	req := validSubmitRequest()
	req.Date = "06/01/2025"

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
}

func TestSubmitAttendanceUnknownClass(t *testing.T) {
	svc := newTestAttendanceService(&attendanceStoreStub{}, &classStoreStub{classes: map[string]*models.Class{}}, &userStoreStub{})

	_, err := svc.Submit(context.Background(), "t1", validSubmitRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentOverview(t *testing.T) {
	classes := &classStoreStub{
		classes: map[string]*models.Class{},
		byStudent: map[string][]models.Class{
			"s1": {{ID: "c1", Name: "Math"}},
		},
	}
	store := &attendanceStoreStub{byClass: map[string][]models.AttendanceRecord{
		"c1": {
			record("c1", "2025-01-06", map[string]models.AttendanceStatus{"s1": models.StatusPresent}),
		},
	}}
	users := &userStoreStub{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}

	svc := newTestAttendanceService(store, classes, users)

	summaries, err := svc.StudentOverview(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, summaries, 1)
	assert.Equal(t, "Math", summaries[0].ClassInfo.Name)
	assert.Equal(t, 100, summaries[0].Summary.Percentage)
}

func TestStudentOverviewUnknownStudent(t *testing.T) {
	svc := newTestAttendanceService(&attendanceStoreStub{}, &classStoreStub{}, &userStoreStub{users: map[string]*models.User{}})

	_, err := svc.StudentOverview(context.Background(), "ghost")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentOverviewNoClasses(t *testing.T) {
	users := &userStoreStub{users: map[string]*models.User{"s1": {ID: "s1"}}}
	svc := newTestAttendanceService(&attendanceStoreStub{}, &classStoreStub{}, users)

	summaries, err := svc.StudentOverview(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NotNil(t, summaries)
}
