package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolapi/internal/class"
)

// ClassHandler serves class CRUD and membership routes.
type ClassHandler struct {
	svc *class.Service
	r   responder
}

// NewClassHandler creates a handler.
func NewClassHandler(svc *class.Service, r responder) *ClassHandler {
	return &ClassHandler{svc: svc, r: r}
}

type createClassRequest struct {
	ClassName  string   `json:"className" binding:"required,min=3,max=50"`
	TeacherID  string   `json:"teacherId" binding:"required"`
	StudentIDs []string `json:"studentIds"`
}

type updateClassRequest struct {
	ClassName  *string   `json:"className" binding:"omitempty,min=3,max=50"`
	TeacherID  *string   `json:"teacherId" binding:"omitempty,min=1"`
	StudentIDs *[]string `json:"studentIds"`
}

type addStudentRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// Create handles POST /classes.
func (h *ClassHandler) Create(c *gin.Context) {
	var req createClassRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), req.ClassName, req.TeacherID, req.StudentIDs)
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusCreated, "Class created successfully", created)
}

// List handles GET /classes.
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if classes == nil {
		classes = []class.Class{}
	}
	h.r.list(c, "Classes retrieved successfully", classes, len(classes))
}

// Get handles GET /classes/:id.
func (h *ClassHandler) Get(c *gin.Context) {
	found, err := h.svc.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Class retrieved successfully", found)
}

// GetDetails handles GET /classes/:id/details with teacher and students
// populated.
func (h *ClassHandler) GetDetails(c *gin.Context) {
	details, err := h.svc.FindByIDWithDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Class retrieved successfully", details)
}

// Update handles PUT /classes/:id.
func (h *ClassHandler) Update(c *gin.Context) {
	var req updateClassRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), class.Update{
		ClassName:  req.ClassName,
		TeacherID:  req.TeacherID,
		StudentIDs: req.StudentIDs,
	})
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Class updated successfully", updated)
}

// Delete handles DELETE /classes/:id.
func (h *ClassHandler) Delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Class deleted successfully", deleted)
}

// ListByTeacher handles GET /classes/teacher/:teacherId.
func (h *ClassHandler) ListByTeacher(c *gin.Context) {
	classes, err := h.svc.FindByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if classes == nil {
		classes = []class.Class{}
	}
	h.r.list(c, "Classes retrieved successfully", classes, len(classes))
}

// ListByStudent handles GET /classes/student/:studentId.
func (h *ClassHandler) ListByStudent(c *gin.Context) {
	classes, err := h.svc.FindByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	if classes == nil {
		classes = []class.Class{}
	}
	h.r.list(c, "Classes retrieved successfully", classes, len(classes))
}

// AddStudent handles POST /classes/:id/students.
func (h *ClassHandler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	updated, err := h.svc.AddStudent(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Student added to class successfully", updated)
}

// RemoveStudent handles DELETE /classes/:id/students/:studentId.
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	updated, err := h.svc.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		h.r.fail(c, err)
		return
	}
	h.r.ok(c, http.StatusOK, "Student removed from class successfully", updated)
}
