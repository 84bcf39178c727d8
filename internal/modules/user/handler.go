package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summate/core/internal/middleware"
	"github.com/summate/core/internal/pkg/response"
)

// Handler exposes the admin user surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the admin routes. The caller is expected to wrap
// them in auth plus an admin role check.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/getAllUsers", h.list)
	r.GET("/getUserById", h.get)
	r.POST("/createUser", h.create)
	r.PUT("/updateUser/:userId", h.update)
	r.DELETE("/deleteUser/:userId", h.remove)
}

type createRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Credits  *int   `json:"credits"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type updateRequest struct {
	UserName *string `json:"userName"`
	Email    *string `json:"email"`
	Credits  *int    `json:"credits"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.svc.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Query("userId")
	if id == "" {
		response.Error(c, http.StatusBadRequest, "userId is required")
		return
	}

	user, err := h.svc.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.Create(CreateInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		Credits:  req.Credits,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "Invalid user details")
		case errors.Is(err, ErrDuplicateUser):
			response.Error(c, http.StatusConflict, "Username or email already in use")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.Update(c.Param("userId"), UpdateInput{
		UserName: req.UserName,
		Email:    req.Email,
		Credits:  req.Credits,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		case errors.Is(err, ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "Invalid user details")
		case errors.Is(err, ErrDuplicateUser):
			response.Error(c, http.StatusConflict, "Username or email already in use")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Param("userId"), middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfDelete):
			response.Error(c, http.StatusBadRequest, "You cannot delete your own account")
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully")
}
