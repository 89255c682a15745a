package models

import (
	"time"
)

// MediaType is the kind of media a story item carries
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

const (
	// ImageDisplaySeconds is how long an image item stays on screen
	ImageDisplaySeconds = 5
	// MaxVideoDisplaySeconds caps how long a video item stays on screen
	MaxVideoDisplaySeconds = 15
	// StoryLifetime is the fixed window between a story's creation and its expiry
	StoryLifetime = 24 * time.Hour
)

// Story is one author's rolling collection of ephemeral items
type Story struct {
	ID                string      `json:"id" bson:"id"`
	AuthorID          string      `json:"authorId" bson:"author_id"`
	AuthorDisplayName string      `json:"authorDisplayName" bson:"author_display_name"`
	AuthorAvatarRef   string      `json:"authorAvatarRef" bson:"author_avatar_ref"`
	Items             []StoryItem `json:"items" bson:"items"`
	CreatedAt         time.Time   `json:"createdAt" bson:"created_at"`
	ExpiresAt         time.Time   `json:"expiresAt" bson:"expires_at"`
}

// StoryItem is a single image or video within a story
type StoryItem struct {
	ID                     string               `json:"id" bson:"id"`
	MediaType              MediaType            `json:"mediaType" bson:"media_type"`
	MediaRef               string               `json:"mediaRef" bson:"media_ref"`
	DisplayDurationSeconds int                  `json:"displayDurationSeconds" bson:"display_duration_seconds"`
	CreatedAt              time.Time            `json:"createdAt" bson:"created_at"`
	ViewedBy               map[string]time.Time `json:"viewedBy" bson:"viewed_by"`
	Reactions              map[string]Reaction  `json:"reactions" bson:"reactions"`
}

// Reaction is a viewer's emoji response to an item
type Reaction struct {
	Emoji     string    `json:"emoji" bson:"emoji"`
	ReactedAt time.Time `json:"reactedAt" bson:"reacted_at"`
}

// Author identifies the user acting on stories along with the profile fields
// shown next to their story
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef"`
}

// StoryStats aggregates engagement for one story
type StoryStats struct {
	Views     int   `json:"views"`
	Reactions int   `json:"reactions"`
	Shares    int64 `json:"shares"`
}

// IsExpired reports whether the story's window closed before now
func (s *Story) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// FindItem returns the index of the item with the given id, or -1
func (s *Story) FindItem(itemID string) int {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// NormalizeDuration returns the on-screen seconds for a media type given the
// requested value. Images are fixed; videos are clamped to MaxVideoDisplaySeconds.
func NormalizeDuration(mediaType MediaType, requested int) int {
	if mediaType == MediaVideo {
		if requested <= 0 || requested > MaxVideoDisplaySeconds {
			return MaxVideoDisplaySeconds
		}
		return requested
	}
	return ImageDisplaySeconds
}

// DisplayDuration is the time the item stays on screen before auto-advance
func (i *StoryItem) DisplayDuration() time.Duration {
	secs := i.DisplayDurationSeconds
	if secs <= 0 {
		secs = NormalizeDuration(i.MediaType, 0)
	}
	return time.Duration(secs) * time.Second
}

// Clone returns a deep copy so callers can mutate without touching the original
func (s Story) Clone() Story {
	out := s
	out.Items = make([]StoryItem, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item.Clone()
	}
	return out
}

// Clone returns a deep copy of the item's engagement maps
func (i StoryItem) Clone() StoryItem {
	out := i
	if i.ViewedBy != nil {
		out.ViewedBy = make(map[string]time.Time, len(i.ViewedBy))
		for k, v := range i.ViewedBy {
			out.ViewedBy[k] = v
		}
	}
	if i.Reactions != nil {
		out.Reactions = make(map[string]Reaction, len(i.Reactions))
		for k, v := range i.Reactions {
			out.Reactions[k] = v
		}
	}
	return out
}

// StoryItemInput describes one item in a create request
type StoryItemInput struct {
	MediaType       string `json:"media_type" validate:"required,oneof=image video"`
	MediaRef        string `json:"media_ref" validate:"required"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=1"`
}

// CreateStoryRequest defines the request body for adding items to a story
type CreateStoryRequest struct {
	Items []StoryItemInput `json:"items" validate:"required,min=1,dive"`
}

// ReactRequest defines the request body for reacting to an item
type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

// StartSessionRequest defines the request body for opening a viewing session
type StartSessionRequest struct {
	StoryID string `json:"story_id"`
}

// JumpRequest defines the request body for jumping to an item in the current story
type JumpRequest struct {
	ItemIndex int `json:"item_index" validate:"min=0"`
}
