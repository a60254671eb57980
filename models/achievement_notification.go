package models

import (
	"time"
)

// AchievementNotification is a best-effort delivery record created alongside
// each new UserAchievement. Marked sent exactly once; re-sending is harmless,
// so the sweep may re-enqueue rows that stayed unsent.
type AchievementNotification struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	AchievementID uint       `gorm:"not null" json:"achievement_id"`
	Message       string     `gorm:"not null" json:"message"`
	IsSent        bool       `gorm:"default:false;index" json:"is_sent"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}
