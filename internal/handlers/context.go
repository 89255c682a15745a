package handlers

import (
	"strconv"

	"github.com/anonto42/nano-midea/stories/internal/middleware"
	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's ID, or 0
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.ClaimsContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// viewerIDFromContext returns the authenticated user's ID in the form stories are keyed by
func viewerIDFromContext(c echo.Context) string {
	id := getUserIDFromContext(c)
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// viewerFromContext resolves the authenticated user's identity and current
// profile. A missing profile still yields the bare identity.
func viewerFromContext(c echo.Context, users repositories.UserRepository) models.Author {
	id := getUserIDFromContext(c)
	if id == 0 {
		return models.Author{}
	}
	if users != nil {
		if user, err := users.GetUserByID(id); err == nil {
			return user.AuthorIdentity()
		}
	}
	return models.Author{ID: strconv.FormatUint(uint64(id), 10)}
}
