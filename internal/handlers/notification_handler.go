package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler lists the story activity addressed to the caller
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// NotificationResponse is a notification with the acting user's story identity
type NotificationResponse struct {
	models.Notification
	Actor models.Author `json:"actor"`
}

// withActors resolves every distinct actor once
func (h *NotificationHandler) withActors(notifications []models.Notification) []NotificationResponse {
	actors := make(map[string]models.Author)
	out := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		actor, ok := actors[n.ActorID]
		if !ok {
			actor = models.Author{ID: n.ActorID}
			if id, err := strconv.ParseUint(n.ActorID, 10, 32); err == nil {
				if user, err := h.userRepository.GetUserByID(uint(id)); err == nil {
					actor = user.AuthorIdentity()
				}
			}
			actors[n.ActorID] = actor
		}
		out[i] = NotificationResponse{Notification: n, Actor: actor}
	}
	return out
}

// GetNotifications returns a page of the caller's notifications, newest first.
// ?type= narrows the list, ?unread=true hides notifications already read.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	recipientID := viewerIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	q := repositories.NotificationQuery{
		RecipientID: recipientID,
		Type:        c.QueryParam("type"),
		UnreadOnly:  c.QueryParam("unread") == "true",
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 50 {
		q.Limit = 20
	}

	notifications, total, err := h.notificationRepository.List(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": h.withActors(notifications)},
		"meta": echo.Map{
			"currentPage":     q.Page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    q.Limit,
			"hasNextPage":     q.Page < totalPages,
			"hasPreviousPage": q.Page > 1,
		},
	})
}

// GetUnreadCount returns how many notifications the caller has not read
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	recipientID := viewerIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), recipientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	recipientID := viewerIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	found, err := h.notificationRepository.MarkAsRead(c.Request().Context(), recipientID, uint(notifID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// MarkAllAsRead marks every unread notification of the caller as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	recipientID := viewerIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), recipientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": updated}})
}
