package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/ledger"
	"github.com/legaldesk/legaldesk/internal/rbac"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{rbac.ErrMissingType, fiber.StatusBadRequest},
	{rbac.ErrInvalidPrincipalType, fiber.StatusBadRequest},
	{rbac.ErrInvalidCapability, fiber.StatusBadRequest},
	{rbac.ErrUnknownCapability, fiber.StatusBadRequest},
	{rbac.ErrPrincipalNotFound, fiber.StatusNotFound},
	{rbac.ErrRoleNotFound, fiber.StatusNotFound},
	{rbac.ErrRoleNameEmpty, fiber.StatusBadRequest},
	{rbac.ErrInvalidContext, fiber.StatusBadRequest},
	{rbac.ErrGrantNotFound, fiber.StatusNotFound},
	{rbac.ErrAssignmentNotFound, fiber.StatusNotFound},
	{ledger.ErrInvalidEntry, fiber.StatusBadRequest},
	{ledger.ErrAmountMismatch, fiber.StatusUnprocessableEntity},
	{ledger.ErrLawyerNotFound, fiber.StatusNotFound},
	{ledger.ErrTransactionNotFound, fiber.StatusNotFound},
	{ledger.ErrDuplicatePaymentRef, fiber.StatusConflict},
	{ledger.ErrInvalidTransition, fiber.StatusConflict},
	{ledger.ErrTransactionImmutable, fiber.StatusConflict},
	{ledger.ErrConcurrentUpdateConflict, fiber.StatusConflict},
	{ledger.ErrDuplicateSummary, fiber.StatusConflict},
}

// Status maps a service error to its HTTP status.
func Status(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	return fiber.StatusInternalServerError
}

// Error writes err as a JSON error response. Internal errors are logged and
// their text is not returned.
func Error(c fiber.Ctx, err error) error {
	status := Status(err)

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")

		msg = "internal server error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// ErrorHandler is the fiber error handler; it keeps error bodies JSON.
func ErrorHandler(c fiber.Ctx, err error) error {
	return Error(c, err)
}
