package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

// errorResponse is the failure body: a single message the client surfaces.
type errorResponse struct {
	Message string `json:"message"`
}

func writeMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Message: message})
}

// writeError maps a pipeline error onto its status code. Unrecognized
// errors become a plain 500 with no internals leaked.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return writeMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		return writeMessage(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrForbidden):
		return writeMessage(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrNotFound):
		return writeMessage(c, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrQuotaExceeded):
		return writeMessage(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, common.ErrUnsupportedMedia):
		return writeMessage(c, http.StatusUnsupportedMediaType, err.Error())
	default:
		return writeMessage(c, http.StatusInternalServerError, "internal error")
	}
}
