package apperrors

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ApplicationError is an error with an HTTP status code and optional
// structured details attached. Client-caused failures carry 4xx codes;
// everything else surfaces as 500 through the app-level error handler.
type ApplicationError struct {
	Message    string
	StatusCode int
	Details    interface{}
}

// New creates an ApplicationError.
func New(message string, statusCode int) *ApplicationError {
	return &ApplicationError{Message: message, StatusCode: statusCode}
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// ErrorHandler is the app-level Fiber error handler. It shapes any error
// that escapes a route handler into the top-level error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	statusCode := fiber.StatusInternalServerError
	message := err.Error()
	var details interface{}

	var appErr *ApplicationError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		statusCode = appErr.StatusCode
		message = appErr.Message
		details = appErr.Details
	case errors.As(err, &fiberErr):
		statusCode = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"message":    message,
			"details":    details,
			"statusCode": statusCode,
		},
	})
}

// IsDuplicate reports whether err is a unique-constraint violation from the
// underlying database. Covers the sqlite and postgres error shapes.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
