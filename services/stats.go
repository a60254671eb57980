package services

import (
	"context"
	"encoding/json"
	"time"

	"game-achievement-system/cache"
	"game-achievement-system/models"
	"game-achievement-system/utils"

	"gorm.io/gorm"
)

// RecentEventsLimit is how many of the latest events a stats response carries.
const RecentEventsLimit = 5

// StatsResponse is the aggregated per-user statistics payload.
type StatsResponse struct {
	UserID       uint        `json:"user_id"`
	Score        int         `json:"score"`
	Achievements []string    `json:"achievements"`
	LastEvents   []LastEvent `json:"last_events"`
}

type LastEvent struct {
	ID        uint            `json:"id"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type StatsService struct {
	DB    *gorm.DB
	Cache *cache.UserCache
}

func NewStatsService(db *gorm.DB, userCache *cache.UserCache) *StatsService {
	return &StatsService{DB: db, Cache: userCache}
}

// GetUserStats returns the serialized stats payload. A live snapshot is
// returned verbatim without touching the database; on a miss the response is
// assembled from the cached score (absent means zero here, since a user with
// no processed events legitimately scores zero), the earned achievement
// names and the latest events, then written back with the snapshot TTL.
func (s *StatsService) GetUserStats(ctx context.Context, userID int) ([]byte, error) {
	userSvc := UserService{DB: s.DB}
	user, err := userSvc.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if snapshot, ok := s.Cache.GetStats(ctx, user.ID); ok {
		return snapshot, nil
	}

	score, _ := s.Cache.GetScore(ctx, user.ID)

	var names []string
	err = s.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Select("achievements.name").
		Joins("INNER JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", user.ID).
		Order("user_achievements.earned_at ASC").
		Scan(&names).Error
	if err != nil {
		return nil, utils.NewInternalError(utils.CodeStatsError, "failed to load achievement names", err)
	}
	if names == nil {
		names = []string{}
	}

	var events []models.Event
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(RecentEventsLimit).
		Find(&events).Error
	if err != nil {
		return nil, utils.NewInternalError(utils.CodeStatsError, "failed to load recent events", err)
	}

	lastEvents := make([]LastEvent, 0, len(events))
	for _, ev := range events {
		lastEvents = append(lastEvents, LastEvent{
			ID:        ev.ID,
			EventType: string(ev.EventType),
			Details:   ev.Details,
			CreatedAt: ev.CreatedAt,
		})
	}

	response := StatsResponse{
		UserID:       user.ID,
		Score:        score,
		Achievements: names,
		LastEvents:   lastEvents,
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return nil, utils.NewInternalError(utils.CodeStatsError, "failed to serialize stats", err)
	}

	s.Cache.SetStats(ctx, user.ID, payload)
	return payload, nil
}
