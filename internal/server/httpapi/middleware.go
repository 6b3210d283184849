package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/wayfare/internal/server/auth"
)

// userIDKey is the echo context key the auth middleware stores the caller
// id under.
const userIDKey = "user_id"

// bearerAuth validates the Authorization header and stores the caller's
// user id on the request context.
func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return writeMessage(c, 401, "missing bearer token")
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			return writeMessage(c, 401, "invalid token")
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

func callerID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
