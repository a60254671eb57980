package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"game-achievement-system/cache"
	"game-achievement-system/models"
	"game-achievement-system/services"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// EventProcessor is the authoritative half of the pipeline: it owns counter
// mutation, achievement evaluation and cache refresh for each event, one
// transaction per processing attempt, serialized per user by the lock.
type EventProcessor struct {
	DB    *gorm.DB
	Cache *cache.UserCache
	Lock  *cache.UserLock
	Tasks services.TaskEnqueuer
}

func NewEventProcessor(db *gorm.DB, userCache *cache.UserCache, lock *cache.UserLock, tasks services.TaskEnqueuer) *EventProcessor {
	return &EventProcessor{DB: db, Cache: userCache, Lock: lock, Tasks: tasks}
}

// HandleProcessEvent processes one queued event. Returning cache.ErrLockBusy
// makes the scheduler retry with exponential backoff; errors wrapping
// asynq.SkipRetry are terminal; anything else retries on the fixed delay.
func (p *EventProcessor) HandleProcessEvent(ctx context.Context, t *asynq.Task) error {
	var payload ProcessEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("corrupt process-event payload: %v: %w", err, asynq.SkipRetry)
	}

	var event models.Event
	if err := p.DB.WithContext(ctx).First(&event, payload.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Worker] event %d not found, dropping job", payload.EventID)
			return fmt.Errorf("event %d not found: %w", payload.EventID, asynq.SkipRetry)
		}
		return fmt.Errorf("load event %d: %w", payload.EventID, err)
	}

	// Re-delivered after a completed run; counting it again would break
	// counter monotonicity guarantees the stats depend on.
	if event.ProcessedAt != nil {
		log.Printf("[Worker] event %d already processed at %s, skipping", event.ID, event.ProcessedAt.Format(time.RFC3339))
		return nil
	}

	token, err := p.Lock.Acquire(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, cache.ErrLockBusy) {
			log.Printf("[Worker] user %d is locked, rescheduling event %d", event.UserID, event.ID)
		}
		return err
	}
	defer func() {
		if err := p.Lock.Release(context.WithoutCancel(ctx), event.UserID, token); err != nil {
			log.Printf("[Worker] %v (TTL will reclaim it)", err)
		}
	}()

	type award struct {
		achievement    models.Achievement
		notificationID uint
	}
	var (
		awards     []award
		totalScore int
	)

	err = p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var score models.UserScore
		err := tx.Where("user_id = ?", event.UserID).First(&score).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			score = models.UserScore{UserID: event.UserID}
			if err := tx.Create(&score).Error; err != nil {
				return fmt.Errorf("create score row for user %d: %w", event.UserID, err)
			}
		} else if err != nil {
			return fmt.Errorf("load score for user %d: %w", event.UserID, err)
		}

		if err := services.ApplyEvent(&score, event.EventType); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := tx.Save(&score).Error; err != nil {
			return fmt.Errorf("save score for user %d: %w", event.UserID, err)
		}

		now := time.Now()
		if err := tx.Model(&event).Update("processed_at", now).Error; err != nil {
			return fmt.Errorf("mark event %d processed: %w", event.ID, err)
		}
		event.ProcessedAt = &now

		totalScore = services.TotalScore(&score)

		var catalog []models.Achievement
		if err := tx.Order("id ASC").Find(&catalog).Error; err != nil {
			return fmt.Errorf("load achievement catalog: %w", err)
		}
		var earnedRows []models.UserAchievement
		if err := tx.Where("user_id = ?", event.UserID).Find(&earnedRows).Error; err != nil {
			return fmt.Errorf("load earned achievements for user %d: %w", event.UserID, err)
		}
		earned := make(map[uint]bool, len(earnedRows))
		for _, row := range earnedRows {
			earned[row.AchievementID] = true
		}

		for _, achievement := range services.Evaluate(catalog, &score, earned) {
			userAchievement := models.UserAchievement{
				UserID:        event.UserID,
				AchievementID: achievement.ID,
			}
			if err := tx.Create(&userAchievement).Error; err != nil {
				return fmt.Errorf("award achievement %d to user %d: %w", achievement.ID, event.UserID, err)
			}

			notification := models.AchievementNotification{
				UserID:        event.UserID,
				AchievementID: achievement.ID,
				Message:       fmt.Sprintf("Congratulations! You earned the achievement: %s", achievement.Name),
			}
			if err := tx.Create(&notification).Error; err != nil {
				return fmt.Errorf("create notification for achievement %d: %w", achievement.ID, err)
			}

			awards = append(awards, award{achievement: achievement, notificationID: notification.ID})
			log.Printf("[Worker] user #%d earned achievement %q", event.UserID, achievement.Name)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// The transaction committed; everything below is best-effort. The cache
	// is rebuilt from the database on a miss, and notifications may be
	// re-enqueued by the sweeper.
	p.Cache.SetScore(ctx, event.UserID, totalScore)
	p.Cache.AddEvent(ctx, &event)
	for _, a := range awards {
		p.Cache.AddAchievement(ctx, event.UserID, a.achievement.ID)
	}
	p.Cache.InvalidateStats(ctx, event.UserID)

	for _, a := range awards {
		if err := p.Tasks.EnqueueNotification(ctx, event.UserID, a.achievement.ID, a.notificationID); err != nil {
			log.Printf("[Worker] failed to enqueue notification for achievement %d: %v", a.achievement.ID, err)
		}
	}

	log.Printf("[Worker] event %d processed: +%d points (total: %d, new achievements: %d)",
		event.ID, services.PointsFor(event.EventType, event.Details), totalScore, len(awards))
	return nil
}
