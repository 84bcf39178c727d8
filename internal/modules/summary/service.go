package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/pkg/cache"
	"github.com/summate/core/internal/pkg/pagination"
)

var (
	ErrNotFound      = errors.New("summary not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrMissingFields = errors.New("missing required fields")
)

// Service owns summary persistence. Reads that can be served from cache
// live in Query; writes go through here and end with a coherence pass.
type Service struct {
	db        *gorm.DB
	cache     *cache.Tier
	logger    *zap.Logger
	coherence *Coherence
}

func NewService(db *gorm.DB, tier *cache.Tier, logger *zap.Logger) *Service {
	s := &Service{db: db, cache: tier, logger: logger}
	s.coherence = newCoherence(db, tier, logger)
	s.coherence.svc = s
	return s
}

// CreateInput carries the fields accepted when saving a summary.
type CreateInput struct {
	OwnerID      string
	Title        string
	Content      string
	OriginalText string
	Prompt       string
	Status       string
	FileName     string
	SourceKind   string
}

// Create validates and persists a new summary, then refreshes the
// listing caches.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.SummaryModel, error) {
	if strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.Content) == "" ||
		strings.TrimSpace(in.OriginalText) == "" {
		return nil, ErrMissingFields
	}

	status := in.Status
	if status == "" {
		status = models.SummaryDraft
	}
	if !models.ValidSummaryStatus(status) {
		return nil, ErrInvalidStatus
	}

	sourceKind := in.SourceKind
	if sourceKind == "" {
		sourceKind = models.SourceText
	}

	record := &models.SummaryModel{
		OwnerID:      in.OwnerID,
		Title:        in.Title,
		Content:      in.Content,
		OriginalText: in.OriginalText,
		Prompt:       in.Prompt,
		Status:       status,
		FileName:     in.FileName,
		SourceKind:   sourceKind,
		WordCount:    CountWords(in.Content),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("create summary: %w", err)
	}

	s.coherence.OnWritten(ctx, record.ID)
	return record, nil
}

// UpdateInput carries the mutable summary fields. Nil pointers leave the
// stored value alone.
type UpdateInput struct {
	Title   *string
	Content *string
	Prompt  *string
	Status  *string
}

// Update applies a partial update to an existing summary and refreshes
// the listing caches.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.SummaryModel, error) {
	var record models.SummaryModel
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load summary: %w", err)
	}

	updates := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, ErrMissingFields
		}
		updates["title"] = *in.Title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, ErrMissingFields
		}
		updates["content"] = *in.Content
	}
	if in.Prompt != nil {
		updates["prompt"] = *in.Prompt
	}
	if in.Status != nil {
		if !models.ValidSummaryStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&record).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update summary: %w", err)
		}
	}

	s.coherence.OnWritten(ctx, record.ID)
	return &record, nil
}

// Delete removes a summary and refreshes the listing caches.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.Delete(&models.SummaryModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete summary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	s.coherence.OnWritten(ctx, id)
	return nil
}

// listPage reads one page of summaries from the database, owner-scoped
// for regular users.
func (s *Service) listPage(requesterID, role, status string, q pagination.Query) ([]models.SummaryModel, int64, error) {
	query := s.db.Model(&models.SummaryModel{})
	if role == models.RoleUser {
		query = query.Where("owner_id = ?", requesterID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count summaries: %w", err)
	}

	var records []models.SummaryModel
	err := query.Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list summaries: %w", err)
	}
	return records, total, nil
}

// CountWords counts whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
