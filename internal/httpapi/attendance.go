package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolapi/internal/apperr"
	"schoolapi/internal/attendance"
)

// AttendanceHandler serves attendance CRUD, mark, statistics and date-range
// routes.
type AttendanceHandler struct {
	svc *attendance.Service
	r   responder
}

// NewAttendanceHandler creates a handler.
func NewAttendanceHandler(svc *attendance.Service, r responder) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, r: r}
}

type createAttendanceRequest struct {
	ClassID   string `json:"classId" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
	Status    string `json:"status"`
}

type updateAttendanceRequest struct {
	ClassID   *string `json:"classId" binding:"omitempty,min=1"`
	StudentID *string `json:"studentId" binding:"omitempty,min=1"`
	Status    *string `json:"status" binding:"omitempty,oneof=present absent"`
}

type markAttendanceRequest struct {
	Status string `json:"status" binding:"required"`
}

type dateRangeQuery struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

// Create handles POST /attendence.
func (h *AttendanceHandler) Create(c *gin.Context) {
	var req createAttendanceRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), req.ClassID, req.StudentID, req.Status)
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusCreated, "Attendance record created successfully", created)
}

// List handles GET /attendence.
func (h *AttendanceHandler) List(c *gin.Context) {
	records, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	h.r.list(c, "Attendance records retrieved successfully", records, len(records))
}

// Get handles GET /attendence/:id.
func (h *AttendanceHandler) Get(c *gin.Context) {
	rec, err := h.svc.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Attendance record retrieved successfully", rec)
}

// Update handles PUT /attendence/:id.
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req updateAttendanceRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	rec, err := h.svc.UpdateRecord(c.Request.Context(), c.Param("id"), attendance.Update{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Status:    req.Status,
	})
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Attendance record updated successfully", rec)
}

// Delete handles DELETE /attendence/:id.
func (h *AttendanceHandler) Delete(c *gin.Context) {
	rec, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Attendance record deleted successfully", rec)
}

// ListByClass handles GET /attendence/class/:classId.
func (h *AttendanceHandler) ListByClass(c *gin.Context) {
	records, err := h.svc.FindByClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	h.r.list(c, "Attendance records retrieved successfully", records, len(records))
}

// ListByStudent handles GET /attendence/student/:studentId.
func (h *AttendanceHandler) ListByStudent(c *gin.Context) {
	records, err := h.svc.FindByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	h.r.list(c, "Attendance records retrieved successfully", records, len(records))
}

// GetByClassAndStudent handles GET /attendence/class/:classId/student/:studentId.
func (h *AttendanceHandler) GetByClassAndStudent(c *gin.Context) {
	rec, err := h.svc.FindByClassAndStudent(c.Request.Context(), c.Param("classId"), c.Param("studentId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Attendance record retrieved successfully", rec)
}

// Mark handles POST /attendence/class/:classId/student/:studentId/mark.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req markAttendanceRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	rec, err := h.svc.Mark(c.Request.Context(), c.Param("classId"), c.Param("studentId"), req.Status)
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Attendance marked successfully", rec)
}

// Statistics handles GET /attendence/class/:classId/statistics.
func (h *AttendanceHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.ClassStatistics(c.Request.Context(), c.Param("classId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// ListByDateRange handles GET /attendence/class/:classId/date-range.
func (h *AttendanceHandler) ListByDateRange(c *gin.Context) {
	var q dateRangeQuery
	if err := bindQuery(c, &q); err != nil {
		h.r.fail(c, err)
		return
	}

	start, err := parseDate(q.StartDate)
	if err != nil {
		h.r.fail(c, apperr.BadRequest("Invalid date format"))
		return
	}
	end, err := parseDate(q.EndDate)
	if err != nil {
		h.r.fail(c, apperr.BadRequest("Invalid date format"))
		return
	}

	records, err := h.svc.FindByDateRange(c.Request.Context(), start, end, c.Param("classId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	h.r.list(c, "Attendance records retrieved successfully", records, len(records))
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(val string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", val)
}
