package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"game-achievement-system/models"
	"game-achievement-system/utils"

	"gorm.io/gorm"
)

// TaskEnqueuer hands jobs to the background queue. Implemented by
// workers.Client; tests substitute a fake.
type TaskEnqueuer interface {
	EnqueueProcessEvent(ctx context.Context, eventID uint) error
	EnqueueNotification(ctx context.Context, userID, achievementID, notificationID uint) error
}

type EventService struct {
	DB    *gorm.DB
	Tasks TaskEnqueuer
}

func NewEventService(db *gorm.DB, tasks TaskEnqueuer) *EventService {
	return &EventService{DB: db, Tasks: tasks}
}

// Submit validates and durably records an incoming event, then enqueues the
// processing job keyed by the event id. Counter and achievement work happens
// asynchronously; the created event is returned immediately.
func (s *EventService) Submit(ctx context.Context, userID int, eventType models.EventType, details json.RawMessage) (*models.Event, error) {
	if userID <= 0 {
		return nil, utils.NewValidationError("user_id must be a positive integer",
			map[string]interface{}{"user_id": userID})
	}
	if !eventType.Valid() {
		return nil, utils.NewValidationError(fmt.Sprintf("unknown event type %q", eventType),
			map[string]interface{}{"event_type": string(eventType)})
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError(utils.CodeUserNotFound,
				fmt.Sprintf("user with ID %d not found", userID),
				map[string]interface{}{"user_id": userID})
		}
		return nil, utils.NewInternalError(utils.CodeEventServiceError, "failed to check user", err)
	}

	event := models.Event{
		UserID:    uint(userID),
		EventType: eventType,
		Details:   details,
	}
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, utils.NewInternalError(utils.CodeEventServiceError, "failed to create event", err)
	}

	if err := s.Tasks.EnqueueProcessEvent(ctx, event.ID); err != nil {
		return nil, utils.NewInternalError(utils.CodeEventServiceError, "failed to enqueue event processing", err)
	}

	return &event, nil
}

// validateDetails enforces the details contract: a flat JSON object no
// larger than MaxDetailsBytes when serialized.
func validateDetails(details json.RawMessage) error {
	if len(details) == 0 {
		return nil
	}
	if len(details) > models.MaxDetailsBytes {
		return utils.NewValidationError(
			fmt.Sprintf("event details exceed %d bytes", models.MaxDetailsBytes),
			map[string]interface{}{"size": len(details)})
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(details, &payload); err != nil {
		return utils.NewValidationError("event details must be a JSON object", nil)
	}
	for key, value := range payload {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return utils.NewValidationError("event details must be a flat object",
				map[string]interface{}{"field": key})
		}
	}
	return nil
}
