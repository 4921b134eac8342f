package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolapi/internal/attendance"
	"schoolapi/internal/auth"
	"schoolapi/internal/class"
	"schoolapi/internal/user"
)

// Deps are the collaborators the route tree needs. The composition root
// builds them once and passes them in; no package-level state.
type Deps struct {
	Users      *user.Service
	Classes    *class.Service
	Attendance *attendance.Service
	Tokens     *auth.Tokens
	UserStore  auth.UserStore
	Log        *zap.Logger
	Production bool
}

// Register mounts the /api/v1 route tree.
func Register(r *gin.Engine, deps Deps) {
	resp := responder{log: deps.Log, production: deps.Production}

	users := NewUserHandler(deps.Users, resp)
	classes := NewClassHandler(deps.Classes, resp)
	att := NewAttendanceHandler(deps.Attendance, resp)

	authenticate := auth.Authenticate(deps.Tokens, deps.UserStore, deps.Log)
	staffOnly := auth.RequireRoles(deps.Log, user.RoleTeacher, user.RoleAdmin)

	v1 := r.Group("/api/v1")

	v1.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	userRoutes := v1.Group("/users")
	{
		userRoutes.POST("/signup", users.SignUp)
		userRoutes.POST("/signin", users.SignIn)
		userRoutes.GET("/me", authenticate, users.Profile)
	}

	classRoutes := v1.Group("/classes", authenticate)
	{
		classRoutes.POST("", staffOnly, classes.Create)
		classRoutes.GET("", classes.List)
		classRoutes.GET("/teacher/:teacherId", classes.ListByTeacher)
		classRoutes.GET("/student/:studentId", classes.ListByStudent)
		classRoutes.GET("/:id/details", classes.GetDetails)
		classRoutes.GET("/:id", classes.Get)
		classRoutes.PUT("/:id", staffOnly, classes.Update)
		classRoutes.DELETE("/:id", staffOnly, classes.Delete)
		classRoutes.POST("/:id/students", staffOnly, classes.AddStudent)
		classRoutes.DELETE("/:id/students/:studentId", staffOnly, classes.RemoveStudent)
	}

	// Deliberate spelling, kept so existing clients don't break.
	attRoutes := v1.Group("/attendence", authenticate)
	{
		attRoutes.POST("", staffOnly, att.Create)
		attRoutes.GET("", att.List)
		attRoutes.GET("/class/:classId", att.ListByClass)
		attRoutes.GET("/student/:studentId", att.ListByStudent)
		attRoutes.GET("/class/:classId/student/:studentId", att.GetByClassAndStudent)
		attRoutes.GET("/class/:classId/statistics", att.Statistics)
		attRoutes.GET("/class/:classId/date-range", att.ListByDateRange)
		attRoutes.POST("/class/:classId/student/:studentId/mark", staffOnly, att.Mark)
		attRoutes.GET("/:id", att.Get)
		attRoutes.PUT("/:id", staffOnly, att.Update)
		attRoutes.DELETE("/:id", staffOnly, att.Delete)
	}
}
