package summary

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summate/core/internal/middleware"
	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/pkg/pagination"
	"github.com/summate/core/internal/pkg/response"
)

// Handler exposes the summary CRUD surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the summary routes behind the auth middleware.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/save-summaries", h.save)
	r.GET("/summaries", h.list)
	r.GET("/summaries/:id", h.get)
	r.PUT("/update-summaries/:id", h.update)
	r.DELETE("/summaries/:id", h.remove)
}

type saveRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	OriginalText string `json:"originalText"`
	Prompt       string `json:"prompt"`
	Status       string `json:"status"`
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Prompt  *string `json:"prompt"`
	Status  *string `json:"status"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.svc.Create(c.Request.Context(), CreateInput{
		OwnerID:      middleware.UserID(c),
		Title:        req.Title,
		Content:      req.Content,
		OriginalText: req.OriginalText,
		Prompt:       req.Prompt,
		Status:       req.Status,
		FileName:     req.FileName,
		SourceKind:   req.FileType,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			response.Error(c, http.StatusBadRequest, "Title, content and original text are required")
		case errors.Is(err, ErrInvalidStatus):
			response.Error(c, http.StatusBadRequest, "Status must be draft or published")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to save summary")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Summary saved successfully",
		"summary": record,
	})
}

func (h *Handler) list(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.ValidSummaryStatus(status) {
		response.Error(c, http.StatusBadRequest, "Status must be draft or published")
		return
	}

	payload, err := h.svc.List(c.Request.Context(),
		middleware.UserID(c), middleware.Role(c), status, pagination.FromContext(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch summaries")
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) get(c *gin.Context) {
	record, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "Summary not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Prompt:  req.Prompt,
		Status:  req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "Summary not found")
		case errors.Is(err, ErrMissingFields):
			response.Error(c, http.StatusBadRequest, "Title and content cannot be empty")
		case errors.Is(err, ErrInvalidStatus):
			response.Error(c, http.StatusBadRequest, "Status must be draft or published")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to update summary")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Summary updated successfully",
		"summary": record,
	})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "Summary not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to delete summary")
		return
	}
	response.Message(c, http.StatusOK, "Summary deleted successfully")
}
