// Package cache is the Redis read accelerator: derived per-user state with
// TTL expiry, plus the per-user mutual-exclusion lock. Everything here is
// reconstructible from the database; a vanished key costs one recompute.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"game-achievement-system/models"
)

const (
	// DefaultTTL applies to the score, recent-events and achievement-set keys.
	DefaultTTL = time.Hour
	// StatsTTL applies to the whole-response stats snapshot.
	StatsTTL = 60 * time.Second
	// MaxCachedEvents bounds the recent-events list.
	MaxCachedEvents = 10
)

func scoreKey(userID uint) string {
	return fmt.Sprintf("user:%d:score", userID)
}

func eventsKey(userID uint) string {
	return fmt.Sprintf("user_events:%d", userID)
}

func achievementsKey(userID uint) string {
	return fmt.Sprintf("user_achievements:%d", userID)
}

func statsKey(userID uint) string {
	return fmt.Sprintf("user:%d:stats", userID)
}

// CachedEvent is the record shape stored in the recent-events list.
type CachedEvent struct {
	ID        uint            `json:"id"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserCache duplicates hot per-user state in Redis. All Set/Add methods are
// best-effort: failures are logged and swallowed so the pipeline keeps the
// database as ground truth.
type UserCache struct {
	rdb *redis.Client
}

func NewUserCache(rdb *redis.Client) *UserCache {
	return &UserCache{rdb: rdb}
}

// GetScore returns the cached total score. ok is false on a miss or on any
// Redis failure; absence means "unknown", not zero.
func (c *UserCache) GetScore(ctx context.Context, userID uint) (int, bool) {
	score, err := c.rdb.Get(ctx, scoreKey(userID)).Int()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] failed to get score for user %d: %v", userID, err)
		}
		return 0, false
	}
	return score, true
}

// SetScore caches the total score with the default TTL.
func (c *UserCache) SetScore(ctx context.Context, userID uint, score int) {
	if err := c.rdb.Set(ctx, scoreKey(userID), score, DefaultTTL).Err(); err != nil {
		log.Printf("[Cache] failed to set score for user %d: %v", userID, err)
	}
}

// AddEvent pushes an event onto the user's recent-events list, newest first,
// trimming to the last MaxCachedEvents.
func (c *UserCache) AddEvent(ctx context.Context, event *models.Event) {
	record := CachedEvent{
		ID:        event.ID,
		EventType: string(event.EventType),
		Details:   event.Details,
		CreatedAt: event.CreatedAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.Printf("[Cache] failed to marshal event %d: %v", event.ID, err)
		return
	}

	key := eventsKey(event.UserID)
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, MaxCachedEvents-1)
	pipe.Expire(ctx, key, DefaultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Cache] failed to add event %d for user %d: %v", event.ID, event.UserID, err)
	}
}

// RecentEvents returns the cached recent-events list, newest first.
func (c *UserCache) RecentEvents(ctx context.Context, userID uint) ([]CachedEvent, bool) {
	raw, err := c.rdb.LRange(ctx, eventsKey(userID), 0, MaxCachedEvents-1).Result()
	if err != nil || len(raw) == 0 {
		if err != nil && err != redis.Nil {
			log.Printf("[Cache] failed to read events for user %d: %v", userID, err)
		}
		return nil, false
	}

	events := make([]CachedEvent, 0, len(raw))
	for _, item := range raw {
		var ev CachedEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			log.Printf("[Cache] corrupt cached event for user %d: %v", userID, err)
			return nil, false
		}
		events = append(events, ev)
	}
	return events, true
}

// AddAchievement adds an earned achievement id to the user's cached set.
func (c *UserCache) AddAchievement(ctx context.Context, userID, achievementID uint) {
	key := achievementsKey(userID)
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, key, achievementID)
	pipe.Expire(ctx, key, DefaultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Cache] failed to add achievement %d for user %d: %v", achievementID, userID, err)
	}
}

// GetStats returns the whole-response stats snapshot verbatim.
func (c *UserCache) GetStats(ctx context.Context, userID uint) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] failed to get stats snapshot for user %d: %v", userID, err)
		}
		return nil, false
	}
	return data, true
}

// SetStats stores the whole-response stats snapshot with its short TTL.
func (c *UserCache) SetStats(ctx context.Context, userID uint, data []byte) {
	if err := c.rdb.Set(ctx, statsKey(userID), data, StatsTTL).Err(); err != nil {
		log.Printf("[Cache] failed to set stats snapshot for user %d: %v", userID, err)
	}
}

// InvalidateStats drops the stats snapshot so the next read recomputes it.
func (c *UserCache) InvalidateStats(ctx context.Context, userID uint) {
	if err := c.rdb.Del(ctx, statsKey(userID)).Err(); err != nil {
		log.Printf("[Cache] failed to invalidate stats snapshot for user %d: %v", userID, err)
	}
}
