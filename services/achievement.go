package services

import (
	"time"

	"game-achievement-system/models"
	"game-achievement-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// SeedCatalog inserts the initial achievement catalog, skipping entries
// whose type already exists. Safe to run on every startup.
func SeedCatalog(db *gorm.DB) error {
	for _, a := range models.SeedAchievements {
		entry := a
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoNothing: true,
		}).Create(&entry).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetAll returns the full catalog in stable catalog order.
func (s *AchievementService) GetAll() ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := s.DB.Order("id ASC").Find(&achievements).Error; err != nil {
		return nil, utils.NewInternalError(utils.CodeAchievementError, "failed to load achievement catalog", err)
	}
	return achievements, nil
}

// UserAchievementDetail is an earned record joined with its catalog entry.
type UserAchievementDetail struct {
	ID              uint      `json:"id"`
	UserID          uint      `json:"user_id"`
	AchievementID   uint      `json:"achievement_id"`
	AchievementName string    `json:"achievement_name"`
	Points          int       `json:"points"`
	EarnedAt        time.Time `json:"earned_at"`
}

// GetUserAchievements returns the user's earned achievements with catalog
// details, in earn order.
func (s *AchievementService) GetUserAchievements(userID uint) ([]UserAchievementDetail, error) {
	var details []UserAchievementDetail
	err := s.DB.Model(&models.UserAchievement{}).
		Select("user_achievements.id, user_achievements.user_id, user_achievements.achievement_id, achievements.name AS achievement_name, achievements.points, user_achievements.earned_at").
		Joins("INNER JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.earned_at ASC").
		Scan(&details).Error
	if err != nil {
		return nil, utils.NewInternalError(utils.CodeAchievementError, "failed to load user achievements", err)
	}
	if details == nil {
		details = []UserAchievementDetail{}
	}
	return details, nil
}

// Evaluate returns the catalog entries newly satisfied by the counters,
// skipping already-earned ids, in catalog order. Conditions are
// greater-or-equal, so a counter that jumps past a threshold still earns it.
// Pure: calling it twice with the same inputs yields the same result.
func Evaluate(catalog []models.Achievement, score *models.UserScore, earned map[uint]bool) []models.Achievement {
	var newlyEarned []models.Achievement
	for _, achievement := range catalog {
		if earned[achievement.ID] {
			continue
		}
		if conditionMet(&achievement, score) {
			newlyEarned = append(newlyEarned, achievement)
		}
	}
	return newlyEarned
}

func conditionMet(a *models.Achievement, score *models.UserScore) bool {
	switch a.ConditionField {
	case models.ConditionLoginCount:
		return score.LoginCount >= a.ConditionValue
	case models.ConditionLevelsCompleted:
		return score.LevelsCompleted >= a.ConditionValue
	case models.ConditionSecretsFound:
		return score.SecretsFound >= a.ConditionValue
	}
	return false
}
