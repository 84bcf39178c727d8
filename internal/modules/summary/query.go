package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/pkg/pagination"
)

// ListingPrefix namespaces every cached listing page. Writers elsewhere
// invalidate by this prefix.
const ListingPrefix = "summaries:"

const (
	recordPrefix = "summary:"

	// cacheTTL bounds how stale an entry can get if the coherence pass
	// misses it.
	cacheTTL = time.Hour
)

// ListPayload is the cached and served shape of a listing page.
type ListPayload struct {
	Summaries   []models.SummaryModel `json:"summaries"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	Total       int64                 `json:"total"`
	UserRole    string                `json:"userRole"`
	Timestamp   time.Time             `json:"timestamp"`
}

// listingKey builds the canonical cache key for a listing query. Parameter
// names are sorted so equivalent queries share one entry; empty parameters
// are omitted.
func listingKey(requesterID, status string, q pagination.Query) string {
	params := map[string]string{
		"limit": strconv.Itoa(q.Limit),
		"page":  strconv.Itoa(q.Page),
	}
	if status != "" {
		params["status"] = status
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+":"+params[name])
	}
	return ListingPrefix + requesterID + ":" + strings.Join(parts, "|")
}

func recordKey(id string) string {
	return recordPrefix + id
}

// List serves a listing page, cache-first. The originalText column is
// projected out of listings; it is only available on single lookups.
func (s *Service) List(ctx context.Context, requesterID, role, status string, q pagination.Query) (*ListPayload, error) {
	if status != "" && !models.ValidSummaryStatus(status) {
		return nil, ErrInvalidStatus
	}

	key := listingKey(requesterID, status, q)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var payload ListPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return &payload, nil
		}
		s.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
		s.cache.Delete(ctx, key)
	}

	payload, err := s.buildListing(requesterID, role, status, q)
	if err != nil {
		return nil, err
	}

	s.storeListing(ctx, key, payload)
	return payload, nil
}

func (s *Service) buildListing(requesterID, role, status string, q pagination.Query) (*ListPayload, error) {
	records, total, err := s.listPage(requesterID, role, status, q)
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].OriginalText = ""
	}
	if records == nil {
		records = []models.SummaryModel{}
	}

	return &ListPayload{
		Summaries:   records,
		TotalPages:  q.TotalPages(total),
		CurrentPage: q.Page,
		Total:       total,
		UserRole:    role,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (s *Service) storeListing(ctx context.Context, key string, payload *ListPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal listing payload", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, string(raw), cacheTTL)
}

// Get returns one summary by id, cache-first, with originalText intact.
func (s *Service) Get(ctx context.Context, id string) (*models.SummaryModel, error) {
	key := recordKey(id)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var record models.SummaryModel
		if err := json.Unmarshal([]byte(raw), &record); err == nil {
			return &record, nil
		}
		s.cache.Delete(ctx, key)
	}

	var record models.SummaryModel
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load summary: %w", err)
	}

	if raw, err := json.Marshal(&record); err == nil {
		s.cache.Set(ctx, key, string(raw), cacheTTL)
	}
	return &record, nil
}
