package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
)

func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	rawID, ok := c.Locals("userId").(string)
	if !ok || rawID == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	uID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return uID, nil
}

func fail500(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// workflowError maps the engine's typed failures onto HTTP statuses.
func workflowError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, workflow.ErrPaymentFailed):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, workflow.ErrDuplicateApplication),
		errors.Is(err, workflow.ErrCapacityExceeded),
		errors.Is(err, workflow.ErrEscrowExhausted):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

type UserMini struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
}
