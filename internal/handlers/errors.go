package handlers

import (
	"fmt"

	"showroom/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var statusByCode = map[apperr.Code]int{
	apperr.CodeInvalid:      fiber.StatusBadRequest,
	apperr.CodeUnauthorized: fiber.StatusUnauthorized,
	apperr.CodeForbidden:    fiber.StatusForbidden,
	apperr.CodeNotFound:     fiber.StatusNotFound,
	apperr.CodeConflict:     fiber.StatusConflict,
}

// respondError writes err as a JSON body with the status matching its code.
// Uncoded errors are treated as internal.
func respondError(c *fiber.Ctx, err error) error {
	status, ok := statusByCode[apperr.CodeOf(err)]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	body := fiber.Map{"message": apperr.MessageOf(err, "Server error")}
	if status == fiber.StatusInternalServerError || status == fiber.StatusConflict {
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// validationFailed builds the 400 body for validator errors.
func validationFailed(c *fiber.Ctx, message string, err error) error {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"errors":  errorMessages,
	})
}
