// Package response centralizes JSON response shapes and the mapping from the
// domain error taxonomy to HTTP status codes.
package response

import (
	"errors"

	domainerr "fundlink/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "unauthorized")
}

// Domain translates a domain error into its HTTP shape. Validation maps to
// 400, wrong PIN to 401, state conflicts to 422, gateway failures to 502 and
// reconciliation to 500 with the transaction context the caller needs to
// follow up.
func Domain(c *fiber.Ctx, err error) error {
	var recErr *domainerr.ReconciliationRequiredError
	if errors.As(err, &recErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":                "transfer settled externally but could not be finalized; do not retry",
			"code":                 "RECONCILIATION_REQUIRED",
			"transaction_id":       recErr.TransactionID,
			"settlement_reference": recErr.SettlementReference,
		})
	}

	var de *domainerr.DomainError
	if !errors.As(err, &de) {
		return ServerError(c, "internal server error")
	}

	status := fiber.StatusInternalServerError
	switch de.Category {
	case domainerr.CategoryValidation:
		status = fiber.StatusBadRequest
	case domainerr.CategoryAuthorization:
		status = fiber.StatusUnauthorized
	case domainerr.CategoryState:
		status = fiber.StatusUnprocessableEntity
	case domainerr.CategoryExternal:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	})
}
