package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/beesaferoot/officelease/internal/backup"
	"github.com/beesaferoot/officelease/internal/drive"
	"github.com/beesaferoot/officelease/internal/logging"
	"github.com/beesaferoot/officelease/internal/repository"
)

// errDriveDisabled is returned by the drive routes until access is authorized.
var errDriveDisabled = errors.New("google drive backups are not configured")

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// classify maps domain errors onto HTTP status codes.
func classify(err error) (int, errorResponse) {
	var he *echo.HTTPError
	var ve *repository.ValidationError
	var re *repository.ReferenceError
	switch {
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorResponse{Error: msg}
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Field: ve.Field}
	case errors.As(err, &re):
		return http.StatusConflict, errorResponse{Error: re.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, backup.ErrMalformed), errors.Is(err, backup.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, drive.ErrNotAuthorized), errors.Is(err, errDriveDisabled):
		return http.StatusServiceUnavailable, errorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := classify(err)
		if code >= http.StatusInternalServerError {
			logging.FromContextOr(c.Request().Context(), logger).Error("request error", zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Warn("failed to write error response", zap.Error(werr))
		}
	}
}

func badRequest(format string, args ...interface{}) error {
	if len(args) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, format)
	}
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
