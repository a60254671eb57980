package services

import (
	"encoding/json"
	"fmt"

	"game-achievement-system/models"
)

// Base point values per event type.
const (
	LoginPoints         = 5
	CompleteLevelPoints = 20
	FindSecretPoints    = 50
)

// PointsFor returns the points an event is worth. complete_level carries an
// optional additive bonus from the level_id detail; the other types are flat.
func PointsFor(eventType models.EventType, details json.RawMessage) int {
	switch eventType {
	case models.EventLogin:
		return LoginPoints
	case models.EventCompleteLevel:
		return CompleteLevelPoints + levelBonus(details)
	case models.EventFindSecret:
		return FindSecretPoints
	}
	return 0
}

func levelBonus(details json.RawMessage) int {
	if len(details) == 0 {
		return 0
	}
	var payload struct {
		LevelID int `json:"level_id"`
	}
	if err := json.Unmarshal(details, &payload); err != nil || payload.LevelID < 0 {
		return 0
	}
	return payload.LevelID
}

// TotalScore derives the user's total from the counters. Pure; the total is
// never stored in the database.
func TotalScore(score *models.UserScore) int {
	return score.LoginCount*LoginPoints +
		score.LevelsCompleted*CompleteLevelPoints +
		score.SecretsFound*FindSecretPoints
}

// ApplyEvent increments exactly one counter for the given event type.
// Unknown types are an explicit error, not a silent no-op.
func ApplyEvent(score *models.UserScore, eventType models.EventType) error {
	switch eventType {
	case models.EventLogin:
		score.LoginCount++
	case models.EventCompleteLevel:
		score.LevelsCompleted++
	case models.EventFindSecret:
		score.SecretsFound++
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}
	return nil
}
