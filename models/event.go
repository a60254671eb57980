package models

import (
	"encoding/json"
	"time"
)

// EventType is the closed set of user activity kinds the system scores.
type EventType string

const (
	EventLogin         EventType = "login"
	EventCompleteLevel EventType = "complete_level"
	EventFindSecret    EventType = "find_secret"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventLogin, EventCompleteLevel, EventFindSecret:
		return true
	}
	return false
}

// MaxDetailsBytes bounds the serialized size of an event's details payload.
const MaxDetailsBytes = 1024

// Event is an immutable activity fact. Rows are append-only: never updated
// except for the ProcessedAt stamp the worker sets exactly once.
type Event struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	EventType EventType       `gorm:"size:32;not null" json:"event_type"`
	Details   json.RawMessage `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`

	// Set inside the scoring transaction; a non-nil value means the event
	// already counted and a re-delivered job must not count it again.
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
