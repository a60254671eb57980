package services

import (
	"context"
	"testing"

	"game-achievement-system/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.UserScore{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.AchievementNotification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// fakeEnqueuer records enqueued jobs instead of talking to Redis.
type fakeEnqueuer struct {
	processedEvents []uint
	notifications   []uint
}

func (f *fakeEnqueuer) EnqueueProcessEvent(_ context.Context, eventID uint) error {
	f.processedEvents = append(f.processedEvents, eventID)
	return nil
}

func (f *fakeEnqueuer) EnqueueNotification(_ context.Context, _, _, notificationID uint) error {
	f.notifications = append(f.notifications, notificationID)
	return nil
}
