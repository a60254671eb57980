package services

import (
	"context"
	"log"
	"time"

	"game-achievement-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// notificationRetryAge is how old an unsent notification must be before the
// sweep re-enqueues it; younger rows are still in flight on the queue.
const notificationRetryAge = 2 * time.Minute

// StartNotificationSweeper runs a periodic job that re-enqueues delivery for
// notifications that never got marked sent. Re-sending is acceptable,
// re-awarding is not, so the sweep only touches the notification rows.
func StartNotificationSweeper(db *gorm.DB, tasks TaskEnqueuer) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			SweepUnsentNotifications(db, tasks)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

// SweepUnsentNotifications re-enqueues delivery for stale unsent rows.
func SweepUnsentNotifications(db *gorm.DB, tasks TaskEnqueuer) {
	cutoff := time.Now().Add(-notificationRetryAge)
	var pending []models.AchievementNotification
	err := db.Where("is_sent = ? AND created_at <= ?", false, cutoff).
		Limit(100).
		Find(&pending).Error
	if err != nil {
		log.Printf("[Sweeper] DB error: %v", err)
		return
	}

	for _, n := range pending {
		if err := tasks.EnqueueNotification(context.Background(), n.UserID, n.AchievementID, n.ID); err != nil {
			log.Printf("[Sweeper] failed to re-enqueue notification %d: %v", n.ID, err)
		}
	}
	if len(pending) > 0 {
		log.Printf("[Sweeper] re-enqueued %d unsent notifications", len(pending))
	}
}
