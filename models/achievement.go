package models

import (
	"time"
)

// Counter fields an achievement condition can check.
const (
	ConditionLoginCount      = "login_count"
	ConditionLevelsCompleted = "levels_completed"
	ConditionSecretsFound    = "secrets_found"
)

// Achievement is a catalog rule: earned when the counter named by
// ConditionField reaches ConditionValue. Seeded at startup, read-only after.
type Achievement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Type           string    `gorm:"uniqueIndex;not null;size:50" json:"type"`
	Name           string    `gorm:"not null;size:100" json:"name"`
	Description    string    `json:"description"`
	Points         int       `gorm:"default:0" json:"points"`
	ConditionField string    `gorm:"not null;size:50" json:"condition_field"`
	ConditionValue int       `gorm:"not null" json:"condition_value"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// SeedAchievements is the initial catalog, inserted idempotently at startup
// (keyed by the unique Type).
var SeedAchievements = []Achievement{
	{
		Type:           "newcomer",
		Name:           "Newcomer",
		Description:    "Log in for the first time",
		Points:         5,
		ConditionField: ConditionLoginCount,
		ConditionValue: 1,
	},
	{
		Type:           "regular",
		Name:           "Regular Player",
		Description:    "Log in 5 times",
		Points:         25,
		ConditionField: ConditionLoginCount,
		ConditionValue: 5,
	},
	{
		Type:           "veteran",
		Name:           "Veteran",
		Description:    "Log in 10 times",
		Points:         50,
		ConditionField: ConditionLoginCount,
		ConditionValue: 10,
	},
	{
		Type:           "explorer",
		Name:           "Explorer",
		Description:    "Find 3 secret objects",
		Points:         30,
		ConditionField: ConditionSecretsFound,
		ConditionValue: 3,
	},
	{
		Type:           "treasure_hunter",
		Name:           "Treasure Hunter",
		Description:    "Find 10 secret objects",
		Points:         100,
		ConditionField: ConditionSecretsFound,
		ConditionValue: 10,
	},
	{
		Type:           "secret_master",
		Name:           "Secret Master",
		Description:    "Find 25 secret objects",
		Points:         250,
		ConditionField: ConditionSecretsFound,
		ConditionValue: 25,
	},
	{
		Type:           "beginner",
		Name:           "Beginner",
		Description:    "Complete 1 level",
		Points:         10,
		ConditionField: ConditionLevelsCompleted,
		ConditionValue: 1,
	},
	{
		Type:           "achiever",
		Name:           "Achiever",
		Description:    "Complete 5 levels",
		Points:         75,
		ConditionField: ConditionLevelsCompleted,
		ConditionValue: 5,
	},
	{
		Type:           "master",
		Name:           "Master",
		Description:    "Complete 10 levels",
		Points:         200,
		ConditionField: ConditionLevelsCompleted,
		ConditionValue: 10,
	},
	{
		Type:           "champion",
		Name:           "Champion",
		Description:    "Complete 25 levels",
		Points:         500,
		ConditionField: ConditionLevelsCompleted,
		ConditionValue: 25,
	},
}
