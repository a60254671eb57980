package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"game-achievement-system/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Notifier delivers achievement notifications. Delivery here is a log line;
// the contract is that it never blocks or rolls back the scoring transaction
// that already committed, and that marking sent is idempotent.
type Notifier struct {
	DB *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{DB: db}
}

func (n *Notifier) HandleNotify(ctx context.Context, t *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("corrupt notify payload: %v: %w", err, asynq.SkipRetry)
	}

	var achievement models.Achievement
	if err := n.DB.WithContext(ctx).First(&achievement, payload.AchievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Notification] achievement %d not found, dropping", payload.AchievementID)
			return fmt.Errorf("achievement %d not found: %w", payload.AchievementID, asynq.SkipRetry)
		}
		return fmt.Errorf("load achievement %d: %w", payload.AchievementID, err)
	}

	var notification models.AchievementNotification
	if err := n.DB.WithContext(ctx).First(&notification, payload.NotificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Notification] notification %d not found, dropping", payload.NotificationID)
			return fmt.Errorf("notification %d not found: %w", payload.NotificationID, asynq.SkipRetry)
		}
		return fmt.Errorf("load notification %d: %w", payload.NotificationID, err)
	}
	if notification.IsSent {
		return nil
	}

	log.Printf("[Notification] user #%d unlocked %q (+%d points)",
		payload.UserID, achievement.Name, achievement.Points)

	now := time.Now()
	err := n.DB.WithContext(ctx).Model(&notification).
		Updates(map[string]interface{}{"is_sent": true, "sent_at": now}).Error
	if err != nil {
		return fmt.Errorf("mark notification %d sent: %w", notification.ID, err)
	}
	return nil
}
