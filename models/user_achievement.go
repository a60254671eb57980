package models

import (
	"time"
)

// UserAchievement records an earned catalog entry. The composite unique
// index guarantees an achievement is awarded at most once per user even if
// two evaluations race.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at" gorm:"autoCreateTime"`
}
