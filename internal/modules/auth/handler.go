package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summate/core/internal/middleware"
	"github.com/summate/core/internal/pkg/response"
)

// Handler exposes the session endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public session routes; RegisterProtected
// mounts the ones that need a verified token.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/signup", h.signup)
	r.POST("/sign-in", h.signIn)
	r.POST("/logout", h.logout)
}

func (h *Handler) RegisterProtected(r gin.IRoutes) {
	r.GET("/check-session", h.checkSession)
}

type signupRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.Signup(req.UserName, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			response.ErrorWithDetail(c, http.StatusBadRequest,
				"Invalid signup details",
				"Username must be 3-30 characters and password at least 8")
		case errors.Is(err, ErrDuplicateUser):
			response.Error(c, http.StatusConflict, "Username or email already in use")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    user,
	})
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.svc.Login(req.Email, req.Password, req.RememberMe)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, ErrAccountDeactivated):
			response.Error(c, http.StatusForbidden, "Account is deactivated")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to sign in")
		}
		return
	}

	maxAge := 24 * 60 * 60
	if req.RememberMe {
		maxAge = 7 * 24 * 60 * 60
	}
	c.SetCookie("token", token, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	response.Message(c, http.StatusOK, "Signed out successfully")
}

func (h *Handler) checkSession(c *gin.Context) {
	user, err := h.svc.CurrentUser(middleware.UserID(c))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Session is no longer valid")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user,
	})
}
