package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/playback"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/anonto42/nano-midea/stories/internal/services"
	"github.com/labstack/echo/v4"
)

// SessionHandler exposes server-side viewing sessions
type SessionHandler struct {
	sessions       *playback.Manager
	store          *services.StoryStore
	userRepository repositories.UserRepository
	now            func() time.Time
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *playback.Manager, store *services.StoryStore, userRepo repositories.UserRepository) *SessionHandler {
	return &SessionHandler{
		sessions:       sessions,
		store:          store,
		userRepository: userRepo,
		now:            time.Now,
	}
}

// RegisterSessionRoutes registers viewing-session routes
func (h *SessionHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/sessions", h.StartSession)
	g.GET("/sessions/current", h.GetSession)
	g.DELETE("/sessions/current", h.CloseSession)
	g.POST("/sessions/current/next", h.navigate((*playback.Player).Next))
	g.POST("/sessions/current/prev", h.navigate((*playback.Player).Previous))
	g.POST("/sessions/current/next-story", h.navigate((*playback.Player).NextStory))
	g.POST("/sessions/current/prev-story", h.navigate((*playback.Player).PreviousStory))
	g.POST("/sessions/current/pause", h.navigate((*playback.Player).TogglePause))
	g.POST("/sessions/current/jump", h.Jump)
}

func sessionJSON(c echo.Context, status int, snap playback.Snapshot) error {
	return c.JSON(status, echo.Map{"success": true, "data": echo.Map{"session": snap}})
}

// StartSession opens a session over the active stories, optionally starting at one story
func (h *SessionHandler) StartSession(c echo.Context) error {
	viewer := viewerFromContext(c, h.userRepository)
	if viewer.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	stories := services.OrderForViewer(h.store.ListStories(c.Request().Context(), viewer), viewer.ID, h.now())
	player, err := h.sessions.Open(viewer.ID, stories, req.StoryID)
	switch {
	case errors.Is(err, playback.ErrNoStories):
		return echo.NewHTTPError(http.StatusNotFound, "No stories to show")
	case errors.Is(err, playback.ErrIndexOutOfRange):
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return sessionJSON(c, http.StatusCreated, player.Snapshot())
}

func (h *SessionHandler) currentPlayer(c echo.Context) (*playback.Player, error) {
	viewerID := viewerIDFromContext(c)
	if viewerID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	player, ok := h.sessions.Current(viewerID)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "No open session")
	}
	return player, nil
}

// GetSession returns the current position of the caller's session
func (h *SessionHandler) GetSession(c echo.Context) error {
	player, err := h.currentPlayer(c)
	if err != nil {
		return err
	}
	return sessionJSON(c, http.StatusOK, player.Snapshot())
}

func (h *SessionHandler) navigate(move func(*playback.Player) playback.Snapshot) echo.HandlerFunc {
	return func(c echo.Context) error {
		player, err := h.currentPlayer(c)
		if err != nil {
			return err
		}
		return sessionJSON(c, http.StatusOK, move(player))
	}
}

// Jump shows a specific item of the current story
func (h *SessionHandler) Jump(c echo.Context) error {
	player, err := h.currentPlayer(c)
	if err != nil {
		return err
	}

	var req models.JumpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	snap, err := player.JumpTo(req.ItemIndex)
	switch {
	case errors.Is(err, playback.ErrIndexOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, "Item index out of range")
	case err != nil:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return sessionJSON(c, http.StatusOK, snap)
}

// CloseSession ends the caller's session
func (h *SessionHandler) CloseSession(c echo.Context) error {
	viewerID := viewerIDFromContext(c)
	if viewerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !h.sessions.Close(viewerID) {
		return echo.NewHTTPError(http.StatusNotFound, "No open session")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}
