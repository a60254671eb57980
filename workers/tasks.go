// Package workers carries the background half of the event pipeline: typed
// asynq tasks, the event processor that owns counter and achievement
// updates, and the best-effort notification sender.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names. Dispatch is by these constants through the ServeMux,
// never by string convention at call sites.
const (
	TypeProcessEvent = "event:process"
	TypeNotify       = "achievement:notify"
)

// Retry bounds. Lock contention backs off exponentially, everything else
// retries on a fixed delay; both are capped, never infinite.
const (
	processEventMaxRetry = 8
	notifyMaxRetry       = 3
)

type ProcessEventPayload struct {
	EventID uint `json:"event_id"`
}

type NotifyPayload struct {
	UserID         uint `json:"user_id"`
	AchievementID  uint `json:"achievement_id"`
	NotificationID uint `json:"notification_id"`
}

// Client enqueues pipeline jobs. Implements services.TaskEnqueuer.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpt)}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueProcessEvent schedules processing for a persisted event. The task
// id is derived from the event id, so a duplicate submission collapses into
// the pending task instead of double-processing.
func (c *Client) EnqueueProcessEvent(ctx context.Context, eventID uint) error {
	payload, err := json.Marshal(ProcessEventPayload{EventID: eventID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeProcessEvent, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(fmt.Sprintf("event:process:%d", eventID)),
		asynq.MaxRetry(processEventMaxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueNotification schedules best-effort delivery for an achievement
// notification, keyed by (user, achievement).
func (c *Client) EnqueueNotification(ctx context.Context, userID, achievementID, notificationID uint) error {
	payload, err := json.Marshal(NotifyPayload{
		UserID:         userID,
		AchievementID:  achievementID,
		NotificationID: notificationID,
	})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeNotify, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(fmt.Sprintf("achievement:notify:%d:%d", userID, achievementID)),
		asynq.MaxRetry(notifyMaxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
