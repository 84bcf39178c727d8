package generation

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/summate/core/internal/middleware"
	"github.com/summate/core/internal/modules/credits"
	"github.com/summate/core/internal/pkg/response"
)

// Handler exposes the generation endpoint.
type Handler struct {
	svc        *Service
	uploadsDir string
}

func NewHandler(svc *Service, uploadsDir string) *Handler {
	return &Handler{svc: svc, uploadsDir: uploadsDir}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/generate-summary", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserID(c)

	var upload *Upload
	file, err := c.FormFile("file")
	if err == nil && file != nil {
		if file.Size > MaxUploadBytes {
			response.ErrorWithDetail(c, http.StatusBadRequest,
				"File too large", "Uploaded files may be at most 5 MB")
			return
		}
		if !AllowedUpload(file.Filename) {
			response.ErrorWithDetail(c, http.StatusBadRequest,
				"Unsupported file type", "Only .txt and .docx files are accepted")
			return
		}

		if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to store upload")
			return
		}
		dest := filepath.Join(h.uploadsDir,
			fmt.Sprintf("%s%s", uuid.New().String(), strings.ToLower(filepath.Ext(file.Filename))))
		if err := c.SaveUploadedFile(file, dest); err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to store upload")
			return
		}
		upload = &Upload{Path: dest, Name: file.Filename}
	}

	result, err := h.svc.Generate(c.Request.Context(),
		userID, c.PostForm("prompt"), c.PostForm("text"), upload)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			response.Error(c, http.StatusUnauthorized, "Authentication required")
		case errors.Is(err, credits.ErrInsufficientCredits):
			response.CreditsExhausted(c, 0)
		case errors.Is(err, credits.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		case errors.Is(err, ErrEmptyInput):
			response.Error(c, http.StatusBadRequest, "No text provided to summarize")
		case errors.Is(err, ErrUnsupportedFile):
			response.ErrorWithDetail(c, http.StatusBadRequest,
				"Unsupported file type", "Only .txt and .docx files are accepted")
		case errors.Is(err, ErrModelUnavailable):
			response.Error(c, http.StatusBadGateway, "Failed to generate summary, please try again")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to generate summary")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
