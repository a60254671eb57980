package models

import (
	"time"
)

// UserScore holds the per-user activity counters. At most one row per user
// (unique on user_id); counters only ever increment, and only the event
// worker mutates them, under the per-user lock.
type UserScore struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	LoginCount      int       `gorm:"default:0" json:"login_count"`
	LevelsCompleted int       `gorm:"default:0" json:"levels_completed"`
	SecretsFound    int       `gorm:"default:0" json:"secrets_found"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
