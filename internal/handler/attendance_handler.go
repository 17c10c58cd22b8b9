package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/presenza/attendance-api/internal/service"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
	"github.com/presenza/attendance-api/pkg/response"
)

// AttendanceHandler handles attendance session and submission endpoints.
type AttendanceHandler struct {
	sessions   *service.SessionService
	attendance *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(sessions *service.SessionService, attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{sessions: sessions, attendance: attendance}
}

// AvailableDates godoc
// @Summary List upcoming session dates
// @Description Resolve a class's schedule templates into upcoming session dates
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param horizonDays query int false "Lookahead window in days"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/sessions [get]
func (h *AttendanceHandler) AvailableDates(c *gin.Context) {
	classID := c.Query("classId")
	horizonDays := 0
	if raw := c.Query("horizonDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "horizonDays must be an integer"))
			return
		}
		horizonDays = parsed
	}

	dates, err := h.sessions.AvailableDates(c.Request.Context(), classID, horizonDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"dates": dates}, nil)
}

// TimeSlots godoc
// @Summary List session time slots
// @Description Resolve the distinct time slot labels a class meets on a date
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param date query string true "Session date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/slots [get]
func (h *AttendanceHandler) TimeSlots(c *gin.Context) {
	slots, err := h.sessions.TimeSlots(c.Request.Context(), c.Query("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"timeSlots": slots}, nil)
}

// Submit godoc
// @Summary Submit attendance
// @Description Record one session's roll call for a class
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SubmitAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.attendance.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// StudentOverview godoc
// @Summary Student attendance overview
// @Description Per-class attendance history and summary for one student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/students/{id} [get]
func (h *AttendanceHandler) StudentOverview(c *gin.Context) {
	summaries, err := h.attendance.StudentOverview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}
