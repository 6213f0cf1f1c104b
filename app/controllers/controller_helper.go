package controllers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// parseAndValidate binds the JSON body into out and runs struct validation.
// On failure it writes the error response and returns false.
func parseAndValidate(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "Request body could not be parsed",
		})
		return false
	}
	if err := getValidator().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]fiber.Map, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fiber.Map{
					"field":   strings.ToLower(fe.Field()),
					"message": fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				})
			}
			c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation_failed",
				"message": "One or more fields are invalid",
				"fields":  fields,
			})
			return false
		}
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"message": err.Error(),
		})
		return false
	}
	return true
}

// respondServiceError maps billing service errors onto HTTP statuses.
// Remote API errors relay the remote message as-is.
func respondServiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, billing.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "You do not have access to this resource",
		})
	}
	if errors.Is(err, billing.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "Resource not found",
		})
	}
	if billing.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status := fiber.StatusPaymentRequired
		if stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			status = stripeErr.HTTPStatusCode
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   "payment_provider_error",
			"message": stripeErr.Msg,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_error",
		"message": "Something went wrong",
	})
}
