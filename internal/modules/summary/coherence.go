package summary

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/pkg/cache"
	"github.com/summate/core/internal/pkg/pagination"
)

// commonStatuses are the status filters warmed for every user after a
// write: the unfiltered listing plus one page per status.
var commonStatuses = []string{"", models.SummaryDraft, models.SummaryPublished}

// Coherence keeps listing caches aligned with the store. After any summary
// write it drops the whole listing namespace, then eagerly rebuilds the
// first page of the common queries for every user, so the next read is a
// hit instead of a stampede of misses.
type Coherence struct {
	db     *gorm.DB
	cache  *cache.Tier
	logger *zap.Logger
	svc    *Service
}

func newCoherence(db *gorm.DB, tier *cache.Tier, logger *zap.Logger) *Coherence {
	return &Coherence{db: db, cache: tier, logger: logger}
}

// OnWritten runs the invalidate-and-rebuild pass after a summary mutation.
// It never fails the triggering write: every problem is logged and the
// pass moves on.
func (c *Coherence) OnWritten(ctx context.Context, summaryID string) {
	removed := c.cache.DeletePrefix(ctx, ListingPrefix)
	c.cache.Delete(ctx, recordKey(summaryID))
	c.logger.Debug("listing caches invalidated",
		zap.String("summaryId", summaryID),
		zap.Int("removed", removed))

	c.refreshRecord(ctx, summaryID)

	var users []models.UserModel
	if err := c.db.Select("id", "role").Find(&users).Error; err != nil {
		c.logger.Warn("cache rebuild skipped, user scan failed", zap.Error(err))
		return
	}

	q := pagination.Query{Page: pagination.DefaultPage, Limit: pagination.DefaultLimit}
	rebuilt := 0
	for _, user := range users {
		for _, status := range commonStatuses {
			payload, err := c.svc.buildListing(user.ID, user.Role, status, q)
			if err != nil {
				c.logger.Warn("cache rebuild entry failed",
					zap.String("userId", user.ID),
					zap.String("status", status),
					zap.Error(err))
				continue
			}
			c.svc.storeListing(ctx, listingKey(user.ID, status, q), payload)
			rebuilt++
		}
	}
	c.logger.Debug("listing caches rebuilt",
		zap.Int("users", len(users)),
		zap.Int("entries", rebuilt))
}

// refreshRecord writes the mutated record back under its own key, so the
// next single lookup is a hit. A record that no longer exists (the delete
// path) just stays evicted.
func (c *Coherence) refreshRecord(ctx context.Context, summaryID string) {
	var record models.SummaryModel
	err := c.db.First(&record, "id = ?", summaryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		c.logger.Warn("record cache refresh failed",
			zap.String("summaryId", summaryID),
			zap.Error(err))
		return
	}

	raw, err := json.Marshal(&record)
	if err != nil {
		c.logger.Warn("marshal record payload",
			zap.String("summaryId", summaryID),
			zap.Error(err))
		return
	}
	c.cache.Set(ctx, recordKey(summaryID), string(raw), cacheTTL)
}
