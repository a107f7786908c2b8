// Package cache stores provider responses in the database so repeated
// lookups skip the network.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTTL applies when the configured TTL is zero
const DefaultTTL = 24 * time.Hour

// Query types
const (
	QuerySearch  = "search"
	QueryDetails = "details"
)

// Cache reads and writes database.MetadataCacheEntry rows. A Cache with no
// database is disabled and every lookup misses.
type Cache struct {
	db     *gorm.DB
	ttl    time.Duration
	now    func() time.Time
	logger hclog.Logger
}

// New creates a cache backed by db
func New(db *gorm.DB, ttl time.Duration, logger hclog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Cache{db: db, ttl: ttl, now: utcNow, logger: logger}
}

// expiry comparisons happen in SQL, so stored times share one zone
func utcNow() time.Time {
	return time.Now().UTC()
}

// WithClock replaces the time source
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = func() time.Time { return now().UTC() }
	return c
}

// Enabled reports whether lookups can hit
func (c *Cache) Enabled() bool {
	return c != nil && c.db != nil
}

// HashQuery normalises a query and returns its md5 hex digest
func HashQuery(query string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%x", hash)
}

// Get decodes a live entry into out and reports whether one was found.
// Read and decode failures are logged and count as a miss.
func (c *Cache) Get(ctx context.Context, provider, queryType, query string, out interface{}) bool {
	if !c.Enabled() {
		return false
	}

	var entry database.MetadataCacheEntry
	err := c.db.WithContext(ctx).
		Where("provider = ? AND query_type = ? AND query_hash = ? AND expires_at > ?",
			provider, queryType, HashQuery(query), c.now()).
		Limit(1).Find(&entry).Error
	if err != nil {
		c.logger.Warn("metadata cache read failed", "provider", provider, "type", queryType, "error", err)
		return false
	}
	if entry.ID == 0 {
		return false
	}

	if err := json.Unmarshal([]byte(entry.Response), out); err != nil {
		c.logger.Warn("failed to decode cached metadata", "provider", provider, "type", queryType, "error", err)
		return false
	}
	return true
}

// Put stores value for the query, replacing any previous entry
func (c *Cache) Put(ctx context.Context, provider, queryType, query string, value interface{}) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("failed to marshal cache data", "error", err)
		return
	}

	entry := &database.MetadataCacheEntry{
		Provider:  provider,
		QueryType: queryType,
		QueryHash: HashQuery(query),
		Response:  string(data),
		ExpiresAt: c.now().Add(c.ttl),
	}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "query_type"}, {Name: "query_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"response", "expires_at"}),
	}).Create(entry).Error
	if err != nil {
		c.logger.Warn("metadata cache write failed", "provider", provider, "type", queryType, "error", err)
	}
}

// Cleanup removes expired entries and returns how many went
func (c *Cache) Cleanup(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	result := c.db.WithContext(ctx).Where("expires_at < ?", c.now()).Delete(&database.MetadataCacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup metadata cache: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		c.logger.Info("cleaned up expired cache entries", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
