// Package response renders the JSON envelope every endpoint answers with.
package response

import (
	"errors"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/casing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Envelope is the success shape: {success, data, message?}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the failure shape: {success: false, message, code?}.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func OK(c *fiber.Ctx, data any) error {
	return Send(c, fiber.StatusOK, data, "")
}

func Created(c *fiber.Ctx, data any) error {
	return Send(c, fiber.StatusCreated, data, "")
}

// Message answers 200 with only a message and no data payload.
func Message(c *fiber.Ctx, msg string) error {
	return Send(c, fiber.StatusOK, nil, msg)
}

// Send converts data to wire case and writes the envelope.
func Send(c *fiber.Ctx, status int, data any, msg string) error {
	wire, err := casing.ToWire(data)
	if err != nil {
		return apperr.Internal("No se pudo serializar la respuesta", err)
	}
	return c.Status(status).JSON(Envelope{Success: true, Data: wire, Message: msg})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Every error raised by
// a handler ends up here and leaves as a sanitized envelope.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			msg := appErr.Message
			if appErr.Kind == apperr.KindInternal {
				log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
				if production || msg == "" {
					msg = "Error inesperado del servidor"
				}
			}
			return c.Status(appErr.Status()).JSON(ErrorEnvelope{
				Message: msg,
				Code:    string(appErr.Kind),
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorEnvelope{Message: fe.Message})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("error no tipado")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorEnvelope{
			Message: "Error inesperado del servidor",
			Code:    string(apperr.KindInternal),
		})
	}
}
