package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/complaint-tracker/internal/apperr"
)

type errorResp struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// ErrorHandler renders every error returned by handlers and middleware as
// {"error","code","details"}.  Internal failures are logged and replaced by
// an opaque message.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func render(err error) (int, errorResp) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			return http.StatusInternalServerError, errorResp{Error: "internal server error", Code: ae.Code}
		}
		return ae.Kind.HTTPStatus(), errorResp{Error: ae.Message, Code: ae.Code, Details: ae.Details}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		code := "http_error"
		switch he.Code {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case http.StatusRequestEntityTooLarge:
			code = "payload_too_large"
		case http.StatusBadRequest:
			code = apperr.KindValidation.String()
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
			code = apperr.KindInternal.String()
		}
		return he.Code, errorResp{Error: msg, Code: code}
	}

	return http.StatusInternalServerError, errorResp{Error: "internal server error", Code: apperr.KindInternal.String()}
}
