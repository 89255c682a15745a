package services

import (
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
)

// OrderForViewer arranges active stories for a viewing session: other authors
// in storage order, then the viewer's own story.
func OrderForViewer(stories []models.Story, viewerID string, now time.Time) []models.Story {
	ordered := make([]models.Story, 0, len(stories))
	var own []models.Story
	for _, story := range stories {
		if story.IsExpired(now) || len(story.Items) == 0 {
			continue
		}
		if viewerID != "" && story.AuthorID == viewerID {
			own = append(own, story)
			continue
		}
		ordered = append(ordered, story)
	}
	return append(ordered, own...)
}

// SplitOwnStory separates the viewer's story from everyone else's
func SplitOwnStory(stories []models.Story, viewerID string) (*models.Story, []models.Story) {
	var own *models.Story
	others := make([]models.Story, 0, len(stories))
	for i := range stories {
		if own == nil && viewerID != "" && stories[i].AuthorID == viewerID {
			own = &stories[i]
			continue
		}
		others = append(others, stories[i])
	}
	return own, others
}
