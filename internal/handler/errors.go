package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/apperror"
)

// ErrorHandler renders every error as {"error": ...}, adding "details" for
// internal failures, and logs 5xx responses.
func ErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := toAppError(err)
		if ae.Code >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("request failed")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(ae.Code)
		} else {
			err = c.JSON(ae.Code, ae)
		}
		if err != nil {
			log.WithError(err).Warn("write error response failed")
		}
	}
}

func toAppError(err error) *apperror.Error {
	if ae, ok := apperror.As(err); ok {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return apperror.FromStatus(he.Code, msg)
	}
	return apperror.Internal("internal server error", err)
}
