package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presenza/attendance-api/internal/middleware"
	"github.com/presenza/attendance-api/internal/models"
	"github.com/presenza/attendance-api/internal/repository"
	"github.com/presenza/attendance-api/internal/service"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
)

type classesStub struct {
	classes map[string]*models.Class
}

func (s *classesStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (s *classesStub) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	return nil, nil
}

type timetablesStub struct {
	templates []models.Timetable
}

func (s *timetablesStub) ListByClass(ctx context.Context, classID string) ([]models.Timetable, error) {
	return s.templates, nil
}

type attendanceStub struct {
	insertErr error
}

func (s *attendanceStub) ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (s *attendanceStub) ListByClassIDs(ctx context.Context, classIDs []string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (s *attendanceStub) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return record, nil
}

type usersStub struct{}

func (s *usersStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Role: models.RoleStudent}, nil
}

type validatorStub struct {
	claims *models.JWTClaims
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if v.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newAttendanceRouter(t *testing.T, attendance *attendanceStub, classes *classesStub, timetables *timetablesStub, claims *models.JWTClaims) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := service.NewCacheService(nil, nil, nil)
	sessionSvc := service.NewSessionService(classes, timetables, nil, nil, 30)
	attendanceSvc := service.NewAttendanceService(attendance, classes, &usersStub{}, cache, nil, nil)
	h := NewAttendanceHandler(sessionSvc, attendanceSvc)

	r := gin.New()
	auth := middleware.JWT(&validatorStub{claims: claims})
	r.GET("/attendance/sessions", auth, middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.AvailableDates)
	r.GET("/attendance/slots", auth, middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.TimeSlots)
	r.POST("/attendance", auth, middleware.RequireRoles(models.RoleTeacher), h.Submit)
	r.GET("/attendance/students/:id", auth, middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.SelfAccess), h.StudentOverview)
	return r
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)
	return w
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
}

func mathClass() *classesStub {
	return &classesStub{classes: map[string]*models.Class{
		"c1": {ID: "c1", Name: "Math", StudentIDs: pq.StringArray{"s1"}},
	}}
}

func TestAvailableDatesEndpoint(t *testing.T) {
	date := time.Now().Format("2006-01-02")
	timetables := &timetablesStub{templates: []models.Timetable{
		{ClassID: "c1", DayOfWeek: models.WeekdayName(time.Now()), StartTime: "08:00", EndTime: "09:00", Date: &date},
	}}
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), timetables, teacherClaims())

	w := doRequest(r, http.MethodGet, "/attendance/sessions?classId=c1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Dates []string `json:"dates"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.Dates, date)
}

func TestAvailableDatesRequiresClassID(t *testing.T) {
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), &timetablesStub{}, teacherClaims())

	w := doRequest(r, http.MethodGet, "/attendance/sessions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailableDatesUnknownClass(t *testing.T) {
	r := newAttendanceRouter(t, &attendanceStub{}, &classesStub{classes: map[string]*models.Class{}}, &timetablesStub{}, teacherClaims())

	w := doRequest(r, http.MethodGet, "/attendance/sessions?classId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitEndpoint(t *testing.T) {
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), &timetablesStub{}, teacherClaims())

	payload, _ := json.Marshal(service.SubmitAttendanceRequest{
		ClassID: "c1",
		Date:    "2025-01-06",
		Records: map[string]string{"s1": "present"},
	})
	w := doRequest(r, http.MethodPost, "/attendance", payload)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSubmitEndpointDuplicateConflict(t *testing.T) {
	attendance := &attendanceStub{insertErr: repository.ErrDuplicateRecord}
	r := newAttendanceRouter(t, attendance, mathClass(), &timetablesStub{}, teacherClaims())

	payload, _ := json.Marshal(service.SubmitAttendanceRequest{
		ClassID: "c1",
		Date:    "2025-01-06",
		Records: map[string]string{"s1": "present"},
	})
	w := doRequest(r, http.MethodPost, "/attendance", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitForbiddenForStudents(t *testing.T) {
	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), &timetablesStub{}, claims)

	w := doRequest(r, http.MethodPost, "/attendance", []byte(`{}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentOverviewSelfAccess(t *testing.T) {
	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), &timetablesStub{}, claims)

	w := doRequest(r, http.MethodGet, "/attendance/students/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// another student's history is off limits
	w = doRequest(r, http.MethodGet, "/attendance/students/s2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEndpointsRejectMissingToken(t *testing.T) {
	r := newAttendanceRouter(t, &attendanceStub{}, mathClass(), &timetablesStub{}, nil)

	w := doRequest(r, http.MethodGet, "/attendance/sessions?classId=c1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
