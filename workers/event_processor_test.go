package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"game-achievement-system/cache"
	"game-achievement-system/models"
	"game-achievement-system/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type processorEnv struct {
	db        *gorm.DB
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	cache     *cache.UserCache
	lock      *cache.UserLock
	enqueuer  *fakeEnqueuer
	processor *EventProcessor
}

type fakeEnqueuer struct {
	processedEvents []uint
	notifications   []NotifyPayload
}

func (f *fakeEnqueuer) EnqueueProcessEvent(_ context.Context, eventID uint) error {
	f.processedEvents = append(f.processedEvents, eventID)
	return nil
}

func (f *fakeEnqueuer) EnqueueNotification(_ context.Context, userID, achievementID, notificationID uint) error {
	f.notifications = append(f.notifications, NotifyPayload{
		UserID:         userID,
		AchievementID:  achievementID,
		NotificationID: notificationID,
	})
	return nil
}

func newProcessorEnv(t *testing.T) *processorEnv {
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
	if err := services.SeedCatalog(db); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &processorEnv{
		db:       db,
		mr:       mr,
		rdb:      rdb,
		cache:    cache.NewUserCache(rdb),
		lock:     cache.NewUserLock(rdb),
		enqueuer: &fakeEnqueuer{},
	}
	env.processor = NewEventProcessor(db, env.cache, env.lock, env.enqueuer)
	return env
}

func (env *processorEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com"}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func (env *processorEnv) createEvent(t *testing.T, userID uint, eventType models.EventType) *models.Event {
	t.Helper()
	event := models.Event{UserID: userID, EventType: eventType}
	if err := env.db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return &event
}

func processTask(t *testing.T, eventID uint) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(ProcessEventPayload{EventID: eventID})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return asynq.NewTask(TypeProcessEvent, payload)
}

func TestProcessLoginEvent(t *testing.T) {
	env := newProcessorEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	event := env.createEvent(t, user.ID, models.EventLogin)

	if err := env.processor.HandleProcessEvent(ctx, processTask(t, event.ID)); err != nil {
		t.Fatalf("HandleProcessEvent returned error: %v", err)
	}

	var score models.UserScore
	if err := env.db.Where("user_id = ?", user.ID).First(&score).Error; err != nil {
		t.Fatalf("score row not created: %v", err)
	}
	if score.LoginCount != 1 || score.LevelsCompleted != 0 || score.SecretsFound != 0 {
		t.Errorf("counters = {%d, %d, %d}, want {1, 0, 0}",
			score.LoginCount, score.LevelsCompleted, score.SecretsFound)
	}

	cached, ok := env.cache.GetScore(ctx, user.ID)
	if !ok || cached != 5 {
		t.Errorf("cached score = (%d, %v), want (5, true)", cached, ok)
	}

	// First login crosses the newcomer threshold.
	var awarded []models.UserAchievement
	if err := env.db.Where("user_id = ?", user.ID).Find(&awarded).Error; err != nil {
		t.Fatalf("failed to load awards: %v", err)
	}
	if len(awarded) != 1 {
		t.Fatalf("awarded %d achievements, want 1", len(awarded))
	}

	var notification models.AchievementNotification
	if err := env.db.Where("user_id = ?", user.ID).First(&notification).Error; err != nil {
		t.Fatalf("notification row not created: %v", err)
	}
	if notification.IsSent {
		t.Error("notification must start unsent")
	}
	if len(env.enqueuer.notifications) != 1 || env.enqueuer.notifications[0].NotificationID != notification.ID {
		t.Errorf("expected one queued notification for row %d, got %v", notification.ID, env.enqueuer.notifications)
	}

	var processed models.Event
	if err := env.db.First(&processed, event.ID).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if processed.ProcessedAt == nil {
		t.Error("event not marked processed")
	}

	// The lock must not survive a successful run.
	if env.mr.Exists("lock:user_score:1") {
		t.Error("lock still held after processing")
	}
}

func TestProcessEventIdempotentRedelivery(t *testing.T) {
	env := newProcessorEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "bob")
	event := env.createEvent(t, user.ID, models.EventLogin)
	task := processTask(t, event.ID)

	if err := env.processor.HandleProcessEvent(ctx, task); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	// At-least-once delivery: the same job arrives again after completion.
	if err := env.processor.HandleProcessEvent(ctx, task); err != nil {
		t.Fatalf("redelivery returned error: %v", err)
	}

	var score models.UserScore
	if err := env.db.Where("user_id = ?", user.ID).First(&score).Error; err != nil {
		t.Fatalf("score row missing: %v", err)
	}
	if score.LoginCount != 1 {
		t.Errorf("login_count = %d after redelivery, want 1", score.LoginCount)
	}

	var awards int64
	env.db.Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&awards)
	if awards != 1 {
		t.Errorf("achievement rows = %d after redelivery, want 1", awards)
	}
}

func TestProcessEventLockBusy(t *testing.T) {
	env := newProcessorEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "carol")
	event := env.createEvent(t, user.ID, models.EventLogin)

	if _, err := env.lock.Acquire(ctx, user.ID); err != nil {
		t.Fatalf("failed to pre-acquire lock: %v", err)
	}

	err := env.processor.HandleProcessEvent(ctx, processTask(t, event.ID))
	if !errors.Is(err, cache.ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}

	// Nothing may have been counted and the foreign lock must remain held.
	var count int64
	env.db.Model(&models.UserScore{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Error("counters mutated while lock was busy")
	}
	var reloaded models.Event
	if err := env.db.First(&reloaded, event.ID).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if reloaded.ProcessedAt != nil {
		t.Error("event marked processed while lock was busy")
	}
}

func TestProcessEventMissing(t *testing.T) {
	env := newProcessorEnv(t)

	err := env.processor.HandleProcessEvent(context.Background(), processTask(t, 9999))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for a vanished event, got %v", err)
	}
}

func TestProcessEventReleasesLockOnFailure(t *testing.T) {
	env := newProcessorEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "dave")
	event := env.createEvent(t, user.ID, models.EventLogin)

	// Force the transaction to fail after lock acquisition.
	if err := env.db.Migrator().DropTable(&models.UserScore{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	err := env.processor.HandleProcessEvent(ctx, processTask(t, event.ID))
	if err == nil {
		t.Fatal("expected error from failing transaction")
	}
	if errors.Is(err, cache.ErrLockBusy) {
		t.Fatalf("failure misclassified as lock contention: %v", err)
	}

	// The lock must be released so the retry can proceed immediately.
	key := fmt.Sprintf("lock:user_score:%d", user.ID)
	if env.mr.Exists(key) {
		t.Error("lock still held after failed attempt")
	}

	var reloaded models.Event
	if err := env.db.First(&reloaded, event.ID).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if reloaded.ProcessedAt != nil {
		t.Error("failed attempt must leave the event unprocessed")
	}
}

func TestProcessEventScenario(t *testing.T) {
	env := newProcessorEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "erin")

	login := env.createEvent(t, user.ID, models.EventLogin)
	if err := env.processor.HandleProcessEvent(ctx, processTask(t, login.ID)); err != nil {
		t.Fatalf("login processing failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		ev := env.createEvent(t, user.ID, models.EventCompleteLevel)
		if err := env.processor.HandleProcessEvent(ctx, processTask(t, ev.ID)); err != nil {
			t.Fatalf("complete_level %d processing failed: %v", i, err)
		}
	}

	var score models.UserScore
	if err := env.db.Where("user_id = ?", user.ID).First(&score).Error; err != nil {
		t.Fatalf("score row missing: %v", err)
	}
	if score.LoginCount != 1 || score.LevelsCompleted != 3 || score.SecretsFound != 0 {
		t.Errorf("counters = {%d, %d, %d}, want {1, 3, 0}",
			score.LoginCount, score.LevelsCompleted, score.SecretsFound)
	}

	total := services.TotalScore(&score)
	if total != 65 {
		t.Errorf("total score = %d, want 65", total)
	}
	cached, ok := env.cache.GetScore(ctx, user.ID)
	if !ok || cached != total {
		t.Errorf("cached score = (%d, %v), want (%d, true)", cached, ok, total)
	}

	// newcomer (1 login) and beginner (1 level); no duplicate beginner from
	// the second and third level completions.
	var types []string
	err := env.db.Model(&models.UserAchievement{}).
		Select("achievements.type").
		Joins("INNER JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", user.ID).
		Order("user_achievements.id ASC").
		Scan(&types).Error
	if err != nil {
		t.Fatalf("failed to load award types: %v", err)
	}
	if len(types) != 2 || types[0] != "newcomer" || types[1] != "beginner" {
		t.Errorf("award types = %v, want [newcomer beginner]", types)
	}
}
