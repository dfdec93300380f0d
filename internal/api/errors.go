package api

import (
	"errors"

	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/service"
	"github.com/gofiber/fiber/v2"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// handleError maps service errors onto HTTP statuses
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := errorResponse{Error: "internal server error"}

	var fiberErr *fiber.Error
	var verr *service.ValidationError
	var selErr *selection.ValidationError
	switch {
	case errors.As(err, &verr):
		status = fiber.StatusBadRequest
		body = errorResponse{Error: "validation failed", Fields: verr.Fields}
	case errors.As(err, &selErr):
		status = fiber.StatusBadRequest
		body = errorResponse{Error: "validation failed", Fields: map[string]string{selErr.Field: selErr.Message}}
	case errors.Is(err, service.ErrQuestionNotFound):
		status = fiber.StatusNotFound
		body = errorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrDuplicateSession):
		status = fiber.StatusConflict
		body = errorResponse{Error: err.Error()}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		body = errorResponse{Error: fiberErr.Message}
	default:
		s.log.WithError(err).WithField("path", c.Path()).Error("request handler failed")
	}

	return c.Status(status).JSON(body)
}
