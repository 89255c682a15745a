package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/stories/internal/models"
)

// StoriesKey is the blob key holding the whole story collection
const StoriesKey = "stories"

// ErrCorruptCollection means the stored collection exists but cannot be decoded
var ErrCorruptCollection = errors.New("story collection is corrupt")

// StoryRepository loads and saves the complete story collection.
// Save replaces whatever was stored before.
type StoryRepository interface {
	Load(ctx context.Context) ([]models.Story, error)
	Save(ctx context.Context, stories []models.Story) error
}

type blobStoryRepository struct {
	blobs BlobStore
}

// NewStoryRepository stores the collection as a JSON array under StoriesKey
func NewStoryRepository(blobs BlobStore) StoryRepository {
	return &blobStoryRepository{blobs: blobs}
}

func (r *blobStoryRepository) Load(ctx context.Context) ([]models.Story, error) {
	raw, err := r.blobs.Get(ctx, StoriesKey)
	if errors.Is(err, ErrBlobNotFound) {
		return []models.Story{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []models.Story{}, nil
	}

	var stories []models.Story
	if err := json.Unmarshal(raw, &stories); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCollection, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return stories, nil
}

func (r *blobStoryRepository) Save(ctx context.Context, stories []models.Story) error {
	if stories == nil {
		stories = []models.Story{}
	}
	raw, err := json.Marshal(stories)
	if err != nil {
		return fmt.Errorf("encode stories: %w", err)
	}
	return r.blobs.Set(ctx, StoriesKey, raw)
}
