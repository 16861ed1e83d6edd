// internal/draft/store.go

// Package draft persists the in-progress application record across reloads.
// The store is deliberately forgiving: read and write failures are logged and
// swallowed, never returned, because the in-memory record remains the source
// of truth for the wizard.
package draft

import (
	"context"
	"encoding/json"
	"time"

	"application-wizard/internal/common/database"
	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/common/metrics"
	"application-wizard/internal/models"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	redis  *database.RedisClient
	logger logger.Logger
	ttl    time.Duration
}

// NewStore builds a draft store. A zero ttl keeps drafts until cleared.
func NewStore(rc *database.RedisClient, log logger.Logger, ttl time.Duration) *Store {
	return &Store{
		redis:  rc,
		logger: log.With(map[string]interface{}{"component": "draft-store"}),
		ttl:    ttl,
	}
}

// Load returns the stored record when present and parseable, else fallback.
// Absent keys, transport errors and parse failures all degrade to fallback.
func (s *Store) Load(ctx context.Context, key string, fallback models.Record) models.Record {
	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("draft load failed, using fallback", map[string]interface{}{
				"key":   key,
				"error": stderrors.NewDraftReadFailedError(key, err).Error(),
			})
		}
		return fallback.Clone()
	}

	var record models.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.Warn("stored draft is not parseable, using fallback", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return fallback.Clone()
	}

	return record
}

// Save serializes and overwrites the stored record. Write-then-forget: a
// failure is logged and counted, never raised.
func (s *Store) Save(ctx context.Context, key string, record models.Record) {
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("draft marshal failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.DraftWriteFailures.Inc()
		return
	}

	if err := s.redis.Set(ctx, key, string(data), s.ttl); err != nil {
		s.logger.Error("draft save failed", map[string]interface{}{
			"key":   key,
			"error": stderrors.NewDraftWriteFailedError(key, err).Error(),
		})
		metrics.DraftWriteFailures.Inc()
	}
}

// Clear removes the stored record. Called once, after a successful submission.
func (s *Store) Clear(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, key); err != nil {
		s.logger.Error("draft clear failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
