package mockbackend

import (
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// problem returns an echo error rendered as a problem-detail body by handleError
func problem(status int, detail string) *echo.HTTPError {
	return echo.NewHTTPError(status, detail)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := "An unexpected error occurred"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		}
	} else {
		log.Err(err).Str("path", c.Request().URL.Path).Msg("mock backend handler failed")
	}

	body := authmodel.ErrorResponse{
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Timestamp: s.nowTime().UTC().Format(time.RFC3339),
		Path:      c.Request().URL.Path,
	}
	if err := c.JSON(status, body); err != nil {
		log.Err(err).Msg("failed to write problem response")
	}
}
