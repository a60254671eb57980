package services

import (
	"errors"
	"fmt"

	"game-achievement-system/models"
	"game-achievement-system/utils"

	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Create inserts a new user; username and email must both be unused.
func (s *UserService) Create(username, email string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, utils.NewValidationError("username and email are required", nil)
	}

	var count int64
	if err := s.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, utils.NewInternalError(utils.CodeApplicationError, "failed to check existing users", err)
	}
	if count > 0 {
		return nil, utils.NewConflictError(utils.CodeUserAlreadyExists,
			fmt.Sprintf("user %s already exists", username),
			map[string]interface{}{"username": username})
	}

	user := models.User{Username: username, Email: email}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, utils.NewInternalError(utils.CodeApplicationError, "failed to create user", err)
	}
	return &user, nil
}

// GetAll returns every user, oldest first.
func (s *UserService) GetAll() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("id ASC").Find(&users).Error; err != nil {
		return nil, utils.NewInternalError(utils.CodeApplicationError, "failed to list users", err)
	}
	return users, nil
}

// GetByID returns the user or a not-found error.
func (s *UserService) GetByID(userID int) (*models.User, error) {
	if userID <= 0 {
		return nil, utils.NewValidationError("user_id must be a positive integer",
			map[string]interface{}{"user_id": userID})
	}
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError(utils.CodeUserNotFound,
				fmt.Sprintf("user with ID %d not found", userID),
				map[string]interface{}{"user_id": userID})
		}
		return nil, utils.NewInternalError(utils.CodeApplicationError, "failed to load user", err)
	}
	return &user, nil
}

// GetScore returns the user's counters row. A user that exists but has no
// processed events yet has no row, which is a distinct not-found case.
func (s *UserService) GetScore(userID int) (*models.UserScore, error) {
	if _, err := s.GetByID(userID); err != nil {
		return nil, err
	}

	var score models.UserScore
	if err := s.DB.Where("user_id = ?", userID).First(&score).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError(utils.CodeUserScoreNotFound,
				fmt.Sprintf("score for user %d not found", userID),
				map[string]interface{}{"user_id": userID})
		}
		return nil, utils.NewInternalError(utils.CodeApplicationError, "failed to load user score", err)
	}
	return &score, nil
}
