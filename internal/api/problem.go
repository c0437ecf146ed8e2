package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

// writeError maps the error taxonomy onto HTTP problems.
func (h *Handlers) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, perrors.ErrValidation):
		return problemResponse(c, fiber.StatusBadRequest, "validation_error", "Bad Request", err.Error())
	case errors.Is(err, perrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, perrors.ErrNotConfigured):
		return problemResponse(c, fiber.StatusServiceUnavailable, "ai_not_configured", "Service Unavailable",
			"AI features need an API key")
	case errors.Is(err, perrors.ErrMalformedResponse):
		return problemResponse(c, fiber.StatusBadGateway, "ai_malformed_response", "Bad Gateway", err.Error())
	case errors.Is(err, perrors.ErrServiceUnavailable):
		return problemResponse(c, fiber.StatusBadGateway, "ai_unavailable", "Bad Gateway", err.Error())
	}
	h.logger.Error().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("request failed")
	return problemResponse(c, fiber.StatusInternalServerError, "internal_error", "Internal Server Error",
		"An internal error occurred")
}

func badBody(c *fiber.Ctx, err error) error {
	return problemResponse(c, fiber.StatusBadRequest, "invalid_body", "Bad Request",
		"Invalid request body: "+err.Error())
}
