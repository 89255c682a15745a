package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/anonto42/nano-midea/stories/internal/services"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	store          *services.StoryStore
	tracker        *services.StoryTracker
	userRepository repositories.UserRepository
	now            func() time.Time
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(store *services.StoryStore, tracker *services.StoryTracker, userRepo repositories.UserRepository) *StoryHandler {
	return &StoryHandler{
		store:          store,
		tracker:        tracker,
		userRepository: userRepo,
		now:            time.Now,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.GET("/stories", h.GetStories)
	g.GET("/stories/:id", h.GetStory)
	g.POST("/stories", h.AddStory)
	g.DELETE("/stories/:id", h.DeleteStory)
	g.DELETE("/stories/:id/items/:itemId", h.DeleteStoryItem)
	g.POST("/stories/:id/items/:itemId/view", h.ViewStory)
	g.POST("/stories/:id/items/:itemId/react", h.ReactToStory)
	g.POST("/stories/:id/share", h.ShareStory)
	g.GET("/stories/:id/stats", h.GetStoryStats)
}

// StoryItemResponse is an item as seen by one viewer. Engagement details are
// only included for the story's author.
type StoryItemResponse struct {
	ID              string                     `json:"id"`
	MediaType       models.MediaType           `json:"media_type"`
	MediaRef        string                     `json:"media_ref"`
	DurationSeconds int                        `json:"duration_seconds"`
	CreatedAt       time.Time                  `json:"created_at"`
	Viewed          bool                       `json:"viewed"`
	MyReaction      string                     `json:"my_reaction,omitempty"`
	ViewCount       *int                       `json:"view_count,omitempty"`
	Reactions       map[string]models.Reaction `json:"reactions,omitempty"`
}

// StoryResponse is the enriched story response
type StoryResponse struct {
	ID             string              `json:"id"`
	Author         models.Author       `json:"author"`
	Items          []StoryItemResponse `json:"items"`
	HasUnseenItems bool                `json:"has_unseen_items"`
	CreatedAt      string              `json:"created_at"`
	ExpiresAt      string              `json:"expires_at"`
}

func toStoryResponse(story models.Story, viewerID string) StoryResponse {
	isAuthor := story.AuthorID == viewerID
	resp := StoryResponse{
		ID: story.ID,
		Author: models.Author{
			ID:          story.AuthorID,
			DisplayName: story.AuthorDisplayName,
			AvatarRef:   story.AuthorAvatarRef,
		},
		Items:     make([]StoryItemResponse, 0, len(story.Items)),
		CreatedAt: story.CreatedAt.Format(time.RFC3339),
		ExpiresAt: story.ExpiresAt.Format(time.RFC3339),
	}
	for _, item := range story.Items {
		_, viewed := item.ViewedBy[viewerID]
		ir := StoryItemResponse{
			ID:              item.ID,
			MediaType:       item.MediaType,
			MediaRef:        item.MediaRef,
			DurationSeconds: item.DisplayDurationSeconds,
			CreatedAt:       item.CreatedAt,
			Viewed:          viewed,
			MyReaction:      item.Reactions[viewerID].Emoji,
		}
		if isAuthor {
			views := len(item.ViewedBy)
			ir.ViewCount = &views
			ir.Reactions = item.Reactions
		}
		if !viewed {
			resp.HasUnseenItems = true
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// GetStories returns active stories, the viewer's own one separately
func (h *StoryHandler) GetStories(c echo.Context) error {
	viewer := viewerFromContext(c, h.userRepository)
	if viewer.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	now := h.now()
	active := make([]models.Story, 0)
	for _, s := range h.store.ListStories(c.Request().Context(), viewer) {
		if !s.IsExpired(now) {
			active = append(active, s)
		}
	}

	own, others := services.SplitOwnStory(active, viewer.ID)
	otherStories := make([]StoryResponse, 0, len(others))
	for _, s := range others {
		otherStories = append(otherStories, toStoryResponse(s, viewer.ID))
	}
	var currentUserStory *StoryResponse
	if own != nil {
		resp := toStoryResponse(*own, viewer.ID)
		currentUserStory = &resp
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"stories":          otherStories,
			"currentUserStory": currentUserStory,
		},
	})
}

// GetStory returns a single story
func (h *StoryHandler) GetStory(c echo.Context) error {
	viewerID := viewerIDFromContext(c)
	story, ok := h.store.GetStory(c.Request().Context(), c.Param("id"))
	if !ok || story.IsExpired(h.now()) {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"story": toStoryResponse(story, viewerID)}})
}

// AddStory appends the uploaded items to the caller's active story, starting a new one if needed
func (h *StoryHandler) AddStory(c echo.Context) error {
	viewer := viewerFromContext(c, h.userRepository)
	if viewer.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	items := make([]models.StoryItem, len(req.Items))
	for i, in := range req.Items {
		items[i] = models.StoryItem{
			MediaType:              models.MediaType(in.MediaType),
			MediaRef:               in.MediaRef,
			DisplayDurationSeconds: in.DurationSeconds,
		}
	}

	ctx := c.Request().Context()
	if !h.store.AppendItems(ctx, viewer, items) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save story")
	}

	now := h.now()
	for _, s := range h.store.ListStories(ctx, viewer) {
		if s.AuthorID == viewer.ID && !s.IsExpired(now) {
			return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"story": toStoryResponse(s, viewer.ID)}})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{}})
}

// ownStory loads the story and checks the caller wrote it
func (h *StoryHandler) ownStory(c echo.Context) (models.Story, error) {
	viewerID := viewerIDFromContext(c)
	if viewerID == "" {
		return models.Story{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	story, ok := h.store.GetStory(c.Request().Context(), c.Param("id"))
	if !ok {
		return models.Story{}, echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	if story.AuthorID != viewerID {
		return models.Story{}, echo.NewHTTPError(http.StatusForbidden, "Only the author can do this")
	}
	return story, nil
}

// DeleteStory removes the caller's story
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	story, err := h.ownStory(c)
	if err != nil {
		return err
	}
	if !h.store.DeleteStory(c.Request().Context(), story.ID) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete story")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// DeleteStoryItem removes one item of the caller's story
func (h *StoryHandler) DeleteStoryItem(c echo.Context) error {
	story, err := h.ownStory(c)
	if err != nil {
		return err
	}
	itemID := c.Param("itemId")
	if story.FindItem(itemID) < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Story item not found")
	}
	if !h.store.DeleteItem(c.Request().Context(), story.ID, itemID) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete story item")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"success": true, "storyDeleted": len(story.Items) == 1},
	})
}

// ViewStory marks an item as seen by the caller
func (h *StoryHandler) ViewStory(c echo.Context) error {
	viewerID := viewerIDFromContext(c)
	if viewerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	h.tracker.MarkViewed(c.Request().Context(), c.Param("id"), c.Param("itemId"), viewerID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// ReactToStory sets the caller's reaction on an item
func (h *StoryHandler) ReactToStory(c echo.Context) error {
	viewerID := viewerIDFromContext(c)
	if viewerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ReactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	h.tracker.AddReaction(c.Request().Context(), c.Param("id"), c.Param("itemId"), viewerID, req.Emoji)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// ShareStory records that the caller shared a story
func (h *StoryHandler) ShareStory(c echo.Context) error {
	if viewerIDFromContext(c) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()
	if _, ok := h.store.GetStory(ctx, c.Param("id")); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	shares := h.tracker.RecordShare(ctx, c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"shares": shares}})
}

// GetStoryStats returns engagement numbers for the caller's story
func (h *StoryHandler) GetStoryStats(c echo.Context) error {
	story, err := h.ownStory(c)
	if err != nil {
		return err
	}
	stats := h.tracker.ComputeStats(c.Request().Context(), story.AuthorID, story.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stats": stats}})
}
