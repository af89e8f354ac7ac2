package server

import (
	"errors"

	"press-pass/core/logger"
	"press-pass/core/pass"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Client-facing messages. Storage error text never reaches clients.
const (
	MsgNotFound    = "Press pass not found"
	MsgUnavailable = "Storage is temporarily unavailable"
	MsgInternal    = "Internal server error"
)

// Failure writes {success:false, error} for err and logs it. Validation
// errors carry their own message; everything else gets a generic one.
func Failure(c *fiber.Ctx, l *zap.Logger, err error) error {
	l = logger.WithRayID(l, c)

	var verr *pass.ValidationError
	switch {
	case errors.As(err, &verr):
		return failure(c, fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, pass.ErrNotFound):
		return failure(c, fiber.StatusNotFound, MsgNotFound)
	case errors.Is(err, pass.ErrStorageUnavailable):
		l.Error("Storage unavailable", zap.Error(err))
		return failure(c, fiber.StatusServiceUnavailable, MsgUnavailable)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return failure(c, ferr.Code, ferr.Message)
	}

	l.Error("Request failed", zap.Error(err))
	return failure(c, fiber.StatusInternalServerError, MsgInternal)
}

func failure(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// ErrorHandler is the fiber error handler. Errors escaping handlers, such
// as unmatched routes and methods, become JSON bodies.
func ErrorHandler(l *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return Failure(c, l, err)
	}
}
