package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"disputedesk/pkg/logger"
	"disputedesk/pkg/response"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// ErrorHandler renders every error that reaches echo in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, _ := response.ErrorBody(err)
	if status >= 500 {
		logger.Error("%s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == "HEAD" {
		_ = c.NoContent(status)
		return
	}
	if rerr := response.Error(c, err); rerr != nil {
		logger.Error("Failed to write error response: %v", rerr)
	}
}
