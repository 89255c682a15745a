package models

import "time"

// NotificationStoryReaction is emitted when a viewer reacts to someone's story item
const NotificationStoryReaction = "story_reaction"

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     string    `json:"actor_id" gorm:"size:64;index"`
	RecipientID string    `json:"recipient_id" gorm:"size:64;index"`
	TargetID    string    `json:"target_id"`                  // story ID
	TargetType  string    `json:"target_type" gorm:"size:20"` // story, story_item
	ItemID      string    `json:"item_id,omitempty" gorm:"size:64"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
