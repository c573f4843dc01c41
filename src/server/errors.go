package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// ServiceError is a structured error returned by a backend service:
// it carries the upstream status code and the serialized body, which
// are forwarded to the caller as-is.
type ServiceError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error: status %d", e.StatusCode)
}

// errorHandler normalizes errors surfaced by route handlers.
// Structured backend errors pass through unchanged; anything
// unrecognized becomes a generic 500-class response with a message
// field.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		s.logger.Error().Int("status", svcErr.StatusCode).Msg("backend service error")
		c.Status(svcErr.StatusCode)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(svcErr.Body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}

	s.logger.Error().Err(err).Msg("unhandled gateway error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Error occurred.",
	})
}
