package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolapi/internal/auth"
	"schoolapi/internal/user"
)

// UserHandler serves signup, signin and profile routes.
type UserHandler struct {
	svc *user.Service
	r   responder
}

// NewUserHandler creates a handler.
func NewUserHandler(svc *user.Service, r responder) *UserHandler {
	return &UserHandler{svc: svc, r: r}
}

type signUpRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=50,password"`
	Role     string `json:"role" binding:"omitempty,oneof=student teacher admin"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUp handles POST /users/signup.
func (h *UserHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	result, err := h.svc.SignUp(c.Request.Context(), user.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.r.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

// SignIn handles POST /users/signin.
func (h *UserHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.fail(c, err)
		return
	}

	result, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User signed in successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

// Profile handles GET /users/me. It relies on the identity attached by the
// authentication gate.
func (h *UserHandler) Profile(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "User not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    identity,
	})
}
